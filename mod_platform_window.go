//go:build !js

package edrefis

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is the native GLFW window. It must be destroyed after the app
// stopped running.
type Window struct {
	glfw *glfw.Window
}

func (w *Window) Destroy() {
	w.glfw.Destroy()
	glfw.Terminate()
}

// WindowModule opens a GLFW window, provides its Surface and forwards its
// keyboard to the Keyboard resource when InputModule was installed first.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

func (mod WindowModule) Install(app *App, cmd *Commands) {
	ensureSingleSurface(app, "window")

	width, height, title := mod.Width, mod.Height, mod.Title
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "edrefis"
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(fmt.Sprintf("glfw: %v", err))
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		panic(fmt.Sprintf("glfw: %v", err))
	}

	fbWidth, fbHeight := win.GetFramebufferSize()
	surface := &Surface{
		Descriptor: wgpuglfw.GetSurfaceDescriptor(win),
		Width:      fbWidth,
		Height:     fbHeight,
	}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		surface.Resize(width, height)
	})

	if kb, ok := Resource[Keyboard](app); ok {
		win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
			code := keyCode(key)
			if code == "" {
				return
			}
			switch action {
			case glfw.Press, glfw.Repeat:
				kb.Press(code)
			case glfw.Release:
				kb.Release(code)
			}
		})
		win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
			if !focused {
				kb.Reset()
			}
		})
	}

	cmd.AddResources(&Window{glfw: win}, surface)
	cmd.UseSystem(System(windowEventsSystem).InStage(Prelude))
	app.Logger().Infof("window %dx%d (framebuffer %dx%d)", width, height, fbWidth, fbHeight)
}

func windowEventsSystem(w *Window, cmd *Commands) {
	glfw.PollEvents()
	if w.glfw.ShouldClose() {
		cmd.Quit()
	}
}

var glfwKeyCodes = map[glfw.Key]string{
	glfw.KeyUp:           "ArrowUp",
	glfw.KeyDown:         "ArrowDown",
	glfw.KeyLeft:         "ArrowLeft",
	glfw.KeyRight:        "ArrowRight",
	glfw.KeySpace:        "Space",
	glfw.KeyEnter:        "Enter",
	glfw.KeyEscape:       "Escape",
	glfw.KeyTab:          "Tab",
	glfw.KeyBackspace:    "Backspace",
	glfw.KeyInsert:       "Insert",
	glfw.KeyDelete:       "Delete",
	glfw.KeyHome:         "Home",
	glfw.KeyEnd:          "End",
	glfw.KeyPageUp:       "PageUp",
	glfw.KeyPageDown:     "PageDown",
	glfw.KeyMinus:        "Minus",
	glfw.KeyEqual:        "Equal",
	glfw.KeyComma:        "Comma",
	glfw.KeyPeriod:       "Period",
	glfw.KeySlash:        "Slash",
	glfw.KeyBackslash:    "Backslash",
	glfw.KeySemicolon:    "Semicolon",
	glfw.KeyApostrophe:   "Quote",
	glfw.KeyGraveAccent:  "Backquote",
	glfw.KeyLeftBracket:  "BracketLeft",
	glfw.KeyRightBracket: "BracketRight",
	glfw.KeyLeftShift:    "ShiftLeft",
	glfw.KeyRightShift:   "ShiftRight",
	glfw.KeyLeftControl:  "ControlLeft",
	glfw.KeyRightControl: "ControlRight",
	glfw.KeyLeftAlt:      "AltLeft",
	glfw.KeyRightAlt:     "AltRight",
	glfw.KeyKPEnter:      "NumpadEnter",
	glfw.KeyKPAdd:        "NumpadAdd",
	glfw.KeyKPSubtract:   "NumpadSubtract",
}

// keyCode names a GLFW key the way KeyboardEvent.code does.
func keyCode(key glfw.Key) string {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return "Key" + string(rune('A'+key-glfw.KeyA))
	case key >= glfw.Key0 && key <= glfw.Key9:
		return "Digit" + string(rune('0'+key-glfw.Key0))
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return "Numpad" + string(rune('0'+key-glfw.KeyKP0))
	case key >= glfw.KeyF1 && key <= glfw.KeyF12:
		return fmt.Sprintf("F%d", key-glfw.KeyF1+1)
	}
	return glfwKeyCodes[key]
}
