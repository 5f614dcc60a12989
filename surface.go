package edrefis

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is what the renderer draws into: a platform surface descriptor
// plus the drawable size in pixels. WindowModule and CanvasModule provide
// it.
type Surface struct {
	Descriptor *wgpu.SurfaceDescriptor
	Width      int
	Height     int
	resized    bool
}

// Resize records a new size for the renderer to apply before its next
// frame.
func (s *Surface) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == s.Width && height == s.Height {
		return
	}
	s.Width = width
	s.Height = height
	s.resized = true
}

// TakeResize reports whether the size changed since the last call.
func (s *Surface) TakeResize() bool {
	resized := s.resized
	s.resized = false
	return resized
}

// SurfaceTag names the module that provides the Surface.
type SurfaceTag struct {
	Name string
}

// ensureSingleSurface fails fast when a second surface provider is
// installed, naming both.
func ensureSingleSurface(app *App, name string) {
	if tag, ok := Resource[SurfaceTag](app); ok {
		app.Logger().Errorf("Multiple surface providers installed: %s and %s", tag.Name, name)
		panic(fmt.Sprintf("Multiple surface providers installed: %s and %s", tag.Name, name))
	}
	app.addResources(&SurfaceTag{Name: name})
}
