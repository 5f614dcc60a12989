//go:build js && wasm

package main

import (
	"syscall/js"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edrefis/edrefis"
)

// offscreen provides a Surface with nothing behind it.
type offscreen struct{}

func (offscreen) Install(app *edrefis.App, cmd *edrefis.Commands) {
	cmd.AddResources(&edrefis.Surface{Width: 64, Height: 64})
}

func TestStartNeedsReadyRenderer(t *testing.T) {
	app := edrefis.NewGameApp(
		edrefis.TimeModule{},
		edrefis.InputModule{},
		offscreen{},
		edrefis.GameModule{Seed: 1},
		edrefis.RendererModule{},
	)
	r := edrefis.MustResource[edrefis.Renderer](app)
	require.False(t, r.Ready())

	b := &bootstrap{app: app, clock: edrefis.NewTickClock(time.Now())}
	assert.ErrorIs(t, b.start(true), edrefis.ErrRendererNotReady)
	assert.True(t, b.frame.Value.IsUndefined(), "no frame loop without a device")
	assert.True(t, js.Global().Get("edrefis").IsUndefined(), "nothing exported without a device")

	// frames drawn anyway fail instead of opening a device
	assert.ErrorIs(t, app.Draw(), edrefis.ErrRendererNotReady)
}
