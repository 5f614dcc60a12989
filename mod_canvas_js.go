//go:build js && wasm

package edrefis

import (
	"syscall/js"

	"github.com/cogentcore/webgpu/wgpu"
)

// CanvasModule draws into an HTML canvas. The page forwards resizes and
// keys through the App entry points; the canvas pixel size is kept in
// sync here.
type CanvasModule struct {
	Canvas js.Value
	Width  int
	Height int
}

func (mod CanvasModule) Install(app *App, cmd *Commands) {
	ensureSingleSurface(app, "canvas")

	surface := &Surface{
		Descriptor: &wgpu.SurfaceDescriptor{Canvas: mod.Canvas},
	}
	resizeCanvas(mod.Canvas, mod.Width, mod.Height)
	surface.Resize(mod.Width, mod.Height)
	surface.TakeResize()

	canvas := mod.Canvas
	cmd.AddResources(surface)
	cmd.UseSystem(System(func(surface *Surface) {
		if canvas.Get("width").Int() != surface.Width || canvas.Get("height").Int() != surface.Height {
			resizeCanvas(canvas, surface.Width, surface.Height)
		}
	}).InStage(Prelude))
}

func resizeCanvas(canvas js.Value, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	canvas.Set("width", width)
	canvas.Set("height", height)
}
