//go:build js && wasm

package main

import (
	"slices"
	"syscall/js"
	"time"

	"github.com/edrefis/edrefis"
)

// options are read from globalThis.edrefisOptions, all optional:
// canvas (selector, "#edrefis"), seed (number) and autoLoop (bool, true).
type options struct {
	canvas   string
	seed     uint32
	autoLoop bool
}

func readOptions() options {
	opts := options{canvas: "#edrefis", seed: 10, autoLoop: true}
	v := js.Global().Get("edrefisOptions")
	if v.Type() != js.TypeObject {
		return opts
	}
	if c := v.Get("canvas"); c.Type() == js.TypeString {
		opts.canvas = c.String()
	}
	if s := v.Get("seed"); s.Type() == js.TypeNumber {
		opts.seed = uint32(s.Int())
	}
	if a := v.Get("autoLoop"); a.Type() == js.TypeBoolean {
		opts.autoLoop = a.Bool()
	}
	return opts
}

// canvasSize is the canvas' CSS box in device pixels.
func canvasSize(canvas js.Value) (int, int) {
	dpr := js.Global().Get("devicePixelRatio").Float()
	if dpr <= 0 {
		dpr = 1
	}
	w := int(canvas.Get("clientWidth").Float() * dpr)
	h := int(canvas.Get("clientHeight").Float() * dpr)
	return max(w, 1), max(h, 1)
}

type bootstrap struct {
	app     *edrefis.App
	canvas  js.Value
	clock   *edrefis.TickClock
	keys    []string
	resized bool
	failed  bool
	frame   js.Func
}

func (b *bootstrap) keyHandler(down bool) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		event := args[0]
		code := event.Get("code").String()
		if slices.Contains(b.keys, code) {
			event.Call("preventDefault")
		}
		if down {
			b.app.KeyDown(code)
		} else {
			b.app.KeyUp(code)
		}
		return nil
	})
}

func (b *bootstrap) draw() {
	if err := b.app.Draw(); err != nil && !b.failed {
		// once, the same error tends to repeat every frame
		b.failed = true
		js.Global().Get("console").Call("error", "edrefis: "+err.Error())
	}
}

func (b *bootstrap) onFrame(this js.Value, args []js.Value) any {
	if b.app.Done() {
		return nil
	}
	if b.resized {
		b.resized = false
		b.app.Resize(canvasSize(b.canvas))
	}
	for range b.clock.Due(time.Now()) {
		b.app.Tick()
	}
	b.draw()
	js.Global().Call("requestAnimationFrame", b.frame)
	return nil
}

// start publishes the entry points and, with autoLoop, begins the frame
// loop. The renderer must be ready by then: its device is requested on the
// main goroutine, which js callbacks cannot wait for.
func (b *bootstrap) start(autoLoop bool) error {
	if r, ok := edrefis.Resource[edrefis.Renderer](b.app); !ok || !r.Ready() {
		return edrefis.ErrRendererNotReady
	}
	b.export()
	if autoLoop {
		b.frame = js.FuncOf(b.onFrame)
		js.Global().Call("requestAnimationFrame", b.frame)
	}
	return nil
}

// export publishes the App's entry points as globalThis.edrefis so a host
// page can drive the game itself.
func (b *bootstrap) export() {
	handle := js.Global().Get("Object").New()
	handle.Set("resize", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) >= 2 {
			b.app.Resize(args[0].Int(), args[1].Int())
		}
		return nil
	}))
	handle.Set("tick", js.FuncOf(func(this js.Value, args []js.Value) any {
		b.app.Tick()
		return nil
	}))
	handle.Set("keyDown", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) >= 1 {
			b.app.KeyDown(args[0].String())
		}
		return nil
	}))
	handle.Set("keyUp", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) >= 1 {
			b.app.KeyUp(args[0].String())
		}
		return nil
	}))
	handle.Set("draw", js.FuncOf(func(this js.Value, args []js.Value) any {
		b.draw()
		return nil
	}))
	js.Global().Set("edrefis", handle)
}

func main() {
	opts := readOptions()
	console := js.Global().Get("console")
	canvas := js.Global().Get("document").Call("querySelector", opts.canvas)
	if canvas.IsNull() {
		console.Call("error", "edrefis: no canvas matches "+opts.canvas)
		return
	}

	width, height := canvasSize(canvas)
	keymap := edrefis.DefaultKeymap()
	app := edrefis.NewGameApp(
		edrefis.LoggingModule{Prefix: "web"},
		edrefis.TimeModule{},
		edrefis.InputModule{Keymap: &keymap},
		edrefis.CanvasModule{Canvas: canvas, Width: width, Height: height},
		edrefis.GameModule{Seed: opts.seed},
		edrefis.EffectsModule{},
		edrefis.ReplayModule{Player: "web"},
		edrefis.RendererModule{},
	)

	if err := edrefis.InitRenderer(app); err != nil {
		console.Call("error", "edrefis: "+err.Error())
		return
	}

	b := &bootstrap{
		app:    app,
		canvas: canvas,
		clock:  edrefis.NewTickClock(time.Now()),
		keys:   keymap.Codes(),
	}

	observer := js.Global().Get("ResizeObserver").New(js.FuncOf(func(this js.Value, args []js.Value) any {
		b.resized = true
		return nil
	}))
	observer.Call("observe", canvas)

	window := js.Global().Get("window")
	window.Call("addEventListener", "keydown", b.keyHandler(true))
	window.Call("addEventListener", "keyup", b.keyHandler(false))
	window.Call("addEventListener", "blur", js.FuncOf(func(this js.Value, args []js.Value) any {
		if kb, ok := edrefis.Resource[edrefis.Keyboard](app); ok {
			kb.Reset()
		}
		return nil
	}))

	if err := b.start(opts.autoLoop); err != nil {
		console.Call("error", "edrefis: "+err.Error())
		return
	}
	console.Call("log", "edrefis: ready")

	select {}
}
