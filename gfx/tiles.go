package gfx

import "github.com/edrefis/edrefis/logic"

// TileInstance is one block cell drawn by the tile program. Offset is the
// cell's top left corner in world units, Tile its palette index and Shade
// the fraction it is darkened by.
type TileInstance struct {
	Offset [2]float32 `gfx:"layout" location:"1" format:"float2"`
	Tile   uint32     `gfx:"layout" location:"2" format:"uint"`
	Shade  float32    `gfx:"layout" location:"3" format:"float"`
}

type tileCorner struct {
	Position [2]float32 `gfx:"layout" location:"0" format:"float2"`
}

var (
	tileCorners = []tileCorner{{Position: [2]float32{0, 0}}, {Position: [2]float32{1, 0}}, {Position: [2]float32{1, 1}}, {Position: [2]float32{0, 1}}}
	tileIndices = []uint16{0, 1, 2, 0, 2, 3}
)

// Palette holds the block colours in logic.Block order. The tile shader
// carries the same table.
var Palette = [logic.BlockCount]Color{
	logic.Red:    {1, 0, 0.188, 1},
	logic.Orange: {1, 0.439, 0, 1},
	logic.Yellow: {1, 0.765, 0, 1},
	logic.Green:  {0.459, 0.933, 0.224, 1},
	logic.Cyan:   {0, 0.941, 0.827, 1},
	logic.Blue:   {0.251, 0.624, 0.973, 1},
	logic.Purple: {0.714, 0.471, 0.961, 1},
}

// BlockColor is the palette entry for b, magenta when b is out of range.
func BlockColor(b logic.Block) Color {
	if int(b) >= len(Palette) {
		return Color{1, 0, 1, 1}
	}
	return Palette[b]
}

// Tile is one cell at (x, y) in world units, darkened by shade.
func Tile(x, y float32, b logic.Block, shade float32) TileInstance {
	return TileInstance{
		Offset: [2]float32{x, y},
		Tile:   uint32(b),
		Shade:  shade,
	}
}

// TileBatch collects the tiles of one frame for a single instanced draw.
type TileBatch []TileInstance

func (b *TileBatch) Add(x, y float32, block logic.Block, shade float32) {
	*b = append(*b, Tile(x, y, block, shade))
}

func (b *TileBatch) Reset() {
	*b = (*b)[:0]
}
