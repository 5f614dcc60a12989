package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edrefis/edrefis/logic"
)

func TestBlockColor(t *testing.T) {
	assert.Equal(t, Color{1, 0, 0.188, 1}, BlockColor(logic.Red))
	assert.Equal(t, Color{0.714, 0.471, 0.961, 1}, BlockColor(logic.Purple))
	assert.Equal(t, Color{1, 0, 1, 1}, BlockColor(logic.Block(9)))
}

func TestTileBatch(t *testing.T) {
	var b TileBatch
	b.Add(3, 20, logic.Cyan, 0.5)

	assert.Equal(t, TileBatch{{Offset: [2]float32{3, 20}, Tile: uint32(logic.Cyan), Shade: 0.5}}, b)
	b.Reset()
	assert.Empty(t, b)
}
