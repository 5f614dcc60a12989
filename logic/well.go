package logic

import "fmt"

// Block is the colour of a tile. Its ordinal doubles as the palette index
// used by the tile renderer.
type Block uint8

const (
	Red Block = iota
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
)

// BlockCount is the number of distinct block colours.
const BlockCount = 7

var blockNames = [BlockCount]string{"red", "orange", "yellow", "green", "cyan", "blue", "purple"}

func (b Block) String() string {
	if int(b) < len(blockNames) {
		return blockNames[b]
	}
	return fmt.Sprintf("Block(%d)", uint8(b))
}

// BlockDirections records which neighbours of a locked tile were part of
// the same piece.
type BlockDirections uint8

const (
	DirUp    BlockDirections = 0b1000
	DirDown  BlockDirections = 0b0100
	DirLeft  BlockDirections = 0b0010
	DirRight BlockDirections = 0b0001
)

func NewBlockDirections(up, down, left, right bool) BlockDirections {
	var d BlockDirections
	if up {
		d |= DirUp
	}
	if down {
		d |= DirDown
	}
	if left {
		d |= DirLeft
	}
	if right {
		d |= DirRight
	}
	return d
}

func (d BlockDirections) Up() bool    { return d&DirUp != 0 }
func (d BlockDirections) Down() bool  { return d&DirDown != 0 }
func (d BlockDirections) Left() bool  { return d&DirLeft != 0 }
func (d BlockDirections) Right() bool { return d&DirRight != 0 }

// MatchWith keeps only the links whose neighbour exists and links back.
// A nil neighbour is an empty cell or the well edge.
func (d BlockDirections) MatchWith(up, down, left, right *BlockDirections) BlockDirections {
	return NewBlockDirections(
		d.Up() && up != nil && up.Down(),
		d.Down() && down != nil && down.Up(),
		d.Left() && left != nil && left.Right(),
		d.Right() && right != nil && right.Left(),
	)
}

type Tile struct {
	Color      Block           `json:"color"`
	Directions BlockDirections `json:"directions"`
}

// Cell is one slot of the well.
type Cell struct {
	Tile
	Filled bool `json:"filled"`
}

const (
	WellCols = 10
	WellRows = 21
)

type Row [WellCols]Cell

func (r Row) full() bool {
	for _, c := range r {
		if !c.Filled {
			return false
		}
	}
	return true
}

// Well is the playfield. Row 0 is the top.
type Well struct {
	Blocks [WellRows]Row `json:"blocks"`
}

func NewWell() Well {
	return Well{}
}

// Filled reports whether (x, y) holds a tile. Coordinates outside the well
// are reported as empty.
func (w *Well) Filled(x, y int) bool {
	if x < 0 || x >= WellCols || y < 0 || y >= WellRows {
		return false
	}
	return w.Blocks[y][x].Filled
}

func (w *Well) Set(x, y int, t Tile) {
	w.Blocks[y][x] = Cell{Tile: t, Filled: true}
}

// ClearedRow is a full row removed by Clear.
type ClearedRow struct {
	Y   int
	Row Row
}

// Clear empties every full row and returns what was removed, top to bottom.
// The rows above are not lowered until CommitClear.
func (w *Well) Clear() []ClearedRow {
	var cleared []ClearedRow
	for y := range w.Blocks {
		if w.Blocks[y].full() {
			cleared = append(cleared, ClearedRow{Y: y, Row: w.Blocks[y]})
			w.Blocks[y] = Row{}
		}
	}
	return cleared
}

// CommitClear lowers everything above each cleared row by one. rows must be
// in the order Clear returned them.
func (w *Well) CommitClear(rows []int) {
	for _, idx := range rows {
		if idx < 0 || idx >= WellRows {
			continue
		}
		last := w.Blocks[idx]
		copy(w.Blocks[1:idx+1], w.Blocks[0:idx])
		w.Blocks[0] = last
	}
	w.relink()
}

func (w *Well) relink() {
	at := func(x, y int) *BlockDirections {
		if !w.Filled(x, y) {
			return nil
		}
		d := w.Blocks[y][x].Directions
		return &d
	}
	var next [WellRows]Row
	for y := range w.Blocks {
		for x := range w.Blocks[y] {
			c := w.Blocks[y][x]
			if c.Filled {
				c.Directions = c.Directions.MatchWith(at(x, y-1), at(x, y+1), at(x-1, y), at(x+1, y))
			}
			next[y][x] = c
		}
	}
	w.Blocks = next
}
