package edrefis

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/edrefis/edrefis/gfx"
	"github.com/edrefis/edrefis/logic"
)

// Board layout in world units, one unit per cell. Every board has a side
// panel for the HUD, the well, and a gap before the next board. The next
// piece preview sits above the well.
const (
	boardPanel  = 5
	boardGap    = 1
	boardWidth  = boardPanel + logic.WellCols + boardGap
	boardTop    = 3
	boardHeight = boardTop + logic.WellRows
	previewW    = 4
	previewH    = 2

	// outline strip width, one source pixel of an 8 pixel tile
	outlineWidth = float32(1) / 8

	// cubeCameraDistance is how far the viewer is from the well plane, in
	// cells, for the cube perspective. The viewer sits on the negative z
	// side, so cubes drifting to negative z come closer.
	cubeCameraDistance = 35
)

var (
	clearColor      = gfx.RGBA(0.05, 0.05, 0.1, 1)
	wellBackground  = gfx.RGBA(0, 0, 0, 0.4)
	outlineColor    = gfx.RGBA(0.9, 0.9, 0.9, 0.4)
	hudColor        = gfx.White
	hudDimColor     = gfx.White.WithAlpha(0.6)
	gameOverColor   = gfx.RGBA(1, 0.3, 0.3, 1)
	lockedShade     = float32(0.5)
	gameOverShade   = float32(0.8)
	activeFadeStart = float32(0.8)
)

// label is text anchored at a world position, sized in world units.
type label struct {
	text  string
	pos   mgl32.Vec2
	size  float32
	color gfx.Color
}

// scene is one frame's worth of geometry, rebuilt every frame and drawn in
// field order: backgrounds, tiles, overlays, cubes, then labels.
type scene struct {
	backgrounds []gfx.Quad
	tiles       gfx.TileBatch
	overlays    []gfx.Quad
	cubes       []gfx.Quad
	labels      []label
	boards      int
}

func (s *scene) reset() {
	s.backgrounds = s.backgrounds[:0]
	s.tiles.Reset()
	s.overlays = s.overlays[:0]
	s.cubes = s.cubes[:0]
	s.labels = s.labels[:0]
	s.boards = 0
}

// bounds is the world rectangle holding every board.
func (s *scene) bounds() (x, y, w, h float32) {
	boards := max(s.boards, 1)
	return 0, 0, float32(boards*boardWidth - boardGap), boardHeight
}

// camera fits the scene into a target of the given pixel size, keeping
// cells square and centering the scene.
func (s *scene) camera(width, height float32) gfx.Camera2D {
	x, y, w, h := s.bounds()
	const margin = 1
	x, y, w, h = x-margin, y-margin, w+2*margin, h+2*margin
	if width > 0 && height > 0 {
		aspect := width / height
		if w/h < aspect {
			grow := h*aspect - w
			x -= grow / 2
			w += grow
		} else {
			grow := w/aspect - h
			y -= grow / 2
			h += grow
		}
	}
	return gfx.Camera2DFromRect(x, y, w, h)
}

// cubeCamera looks at the z=0 plane through a perspective that shows it
// exactly as view does, so cubes at depth 0 line up with the tiles.
func cubeCamera(view gfx.Camera2D) gfx.Camera3D {
	visible := 2 / float32(math.Abs(float64(view.Zoom.Y())))
	fovy := 2 * math.Atan(float64(visible)/2/cubeCameraDistance)
	x, y := view.Target.X(), view.Target.Y()
	return gfx.Camera3D{
		Position: mgl32.Vec3{x, y, -cubeCameraDistance},
		Target:   mgl32.Vec3{x, y, 0},
		// y grows downwards, as in the 2D view
		Up:   mgl32.Vec3{0, -1, 0},
		Fovy: mgl32.RadToDeg(float32(fovy)),
	}
}

func (s *scene) addLabel(text string, x, y, size float32, c gfx.Color) {
	s.labels = append(s.labels, label{text: text, pos: mgl32.Vec2{x, y}, size: size, color: c})
}

// addBoard lays out field as the next board from the left. name, when set,
// is shown above the board.
func (s *scene) addBoard(field *logic.Field, cubes []Cube, name string) {
	x0 := float32(s.boards * boardWidth)
	s.boards++
	wx, wy := x0+boardPanel, float32(boardTop)

	s.backgrounds = append(s.backgrounds,
		gfx.SolidRect(wx, wy, logic.WellCols, logic.WellRows, wellBackground),
		gfx.SolidRect(wx+(logic.WellCols-previewW)/2, wy-previewH-0.5, previewW, previewH, wellBackground),
	)

	gameOver := field.State.Phase == logic.PhaseGameOver
	shade := lockedShade
	if gameOver {
		shade = gameOverShade
	}
	for y, row := range field.Well.Blocks {
		for x, cell := range row {
			if cell.Filled {
				s.addTile(wx+float32(x), wy+float32(y), cell.Color, shade)
			}
		}
	}
	s.addOutlines(&field.Well, wx, wy)

	if piece := field.Active(); piece != nil {
		fade := lerp(activeFadeStart, 0, float32(piece.TicksToLock)/logic.LockTicks)
		piece.Cells(func(x, y int) {
			s.addTile(wx+float32(x), wy+float32(y), piece.Color, fade)
		})
	}

	next := field.Next
	next.X, next.Y = 0, -1
	px, py := wx+(logic.WellCols-previewW)/2, wy-previewH-0.5
	next.Cells(func(x, y int) {
		if y >= 0 && y < previewH {
			s.addTile(px+float32(x), py+float32(y), next.Color, 0)
		}
	})

	for _, c := range cubes {
		s.cubes = append(s.cubes, cubeQuad(c, wx, wy))
	}

	s.addHUD(field, x0, wy, name)
}

func (s *scene) addTile(x, y float32, block logic.Block, shade float32) {
	s.tiles.Add(x, y, block, shade)
}

// addOutlines draws a thin strip on every side of a locked tile that faces
// an empty cell, plus corner pixels where only the diagonal is empty.
func (s *scene) addOutlines(well *logic.Well, wx, wy float32) {
	empty := func(x, y int) bool {
		if x < 0 || y < 0 || x >= logic.WellCols || y >= logic.WellRows {
			return false
		}
		return !well.Filled(x, y)
	}
	const px = outlineWidth
	strip := func(x, y, w, h float32) {
		s.overlays = append(s.overlays, gfx.SolidRect(x, y, w, h, outlineColor))
	}
	for y := range logic.WellRows {
		for x := range logic.WellCols {
			if !well.Filled(x, y) {
				continue
			}
			bx, by := wx+float32(x), wy+float32(y)
			top, bottom := empty(x, y-1), empty(x, y+1)
			left, right := empty(x-1, y), empty(x+1, y)
			if top {
				strip(bx, by, 1, px)
			}
			if bottom {
				strip(bx, by+1-px, 1, px)
			}
			if left {
				strip(bx, by, px, 1)
			}
			if right {
				strip(bx+1-px, by, px, 1)
			}
			if !left && !top && empty(x-1, y-1) {
				strip(bx, by, px, px)
			}
			if !right && !top && empty(x+1, y-1) {
				strip(bx+1-px, by, px, px)
			}
			if !left && !bottom && empty(x-1, y+1) {
				strip(bx, by+1-px, px, px)
			}
			if !right && !bottom && empty(x+1, y+1) {
				strip(bx+1-px, by+1-px, px, px)
			}
		}
	}
}

// cubeQuad is the front face of a cube in world space, turned by its
// rotation and pushed along z by its depth.
func cubeQuad(c Cube, wx, wy float32) gfx.Quad {
	center := mgl32.Vec3{wx + c.X + 0.5, wy + c.Y + 0.5, c.Z}
	sin, cos := math.Sincos(float64(c.RZ))
	e1 := mgl32.Vec3{float32(cos), float32(sin), 0}
	e2 := mgl32.Vec3{float32(-sin), float32(cos), 0}
	origin := center.Sub(e1.Add(e2).Mul(0.5))
	return gfx.Parallelogram(origin, e1, e2, mgl32.Vec2{}, mgl32.Vec2{1, 0}, mgl32.Vec2{0, 1}, gfx.BlockColor(c.Color))
}

func (s *scene) addHUD(field *logic.Field, x0, wy float32, name string) {
	const (
		x      = 0.5
		header = 0.6
		value  = 0.9
	)
	gravity, unit := gravityText(field.Level)
	s.addLabel("Gravity", x0+x, wy+3, header, hudDimColor)
	s.addLabel(gravity+unit, x0+x, wy+3.8, value, hudColor)

	level, stop := levelText(field.Level)
	s.addLabel("Level", x0+x, wy+6, header, hudDimColor)
	s.addLabel(level+stop, x0+x, wy+6.8, value, hudColor)

	s.addLabel("Lines", x0+x, wy+9, header, hudDimColor)
	s.addLabel(fmt.Sprint(field.Lines), x0+x, wy+9.8, value, hudColor)

	if name != "" {
		s.addLabel(name, x0+x, 0.5, header, hudDimColor)
	}
	if field.State.Phase == logic.PhaseGameOver {
		s.addLabel("GAME OVER", x0+boardPanel+2, wy+logic.WellRows/2-0.5, value, gameOverColor)
	}
}

// gravityText shows slow gravity in 1/128 rows per tick and fast gravity
// in whole rows.
func gravityText(level uint32) (value, unit string) {
	g := logic.LevelToGravity(level)
	if g < logic.GravityUnit {
		return fmt.Sprint(g / 2), " /128"
	}
	return fmt.Sprint(g / logic.GravityUnit), "G"
}

// levelText is the level and the next section stop.
func levelText(level uint32) (value, next string) {
	return fmt.Sprint(level), fmt.Sprintf(" /%d", (level/100+1)*100)
}
