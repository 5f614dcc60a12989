package edrefis

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edrefis/edrefis/gfx"
	"github.com/edrefis/edrefis/logic"
)

func TestScene_Bounds(t *testing.T) {
	var s scene
	_, _, w, h := s.bounds()
	assert.Equal(t, float32(boardWidth-boardGap), w, "empty scene is sized for one board")
	assert.Equal(t, float32(boardHeight), h)

	s.addBoard(logic.NewField(), nil, "")
	s.addBoard(logic.NewField(), nil, "")
	x, y, w, h := s.bounds()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Equal(t, float32(2*boardWidth-boardGap), w)
	assert.Equal(t, float32(boardHeight), h)
}

func TestScene_CameraKeepsCellsSquare(t *testing.T) {
	var s scene
	s.addBoard(logic.NewField(), nil, "")

	for _, size := range [][2]float32{{1280, 720}, {400, 900}, {500, 500}} {
		cam := s.camera(size[0], size[1])
		// world units per pixel on both axes
		ux := 2 / cam.Zoom.X() / size[0]
		uy := -2 / cam.Zoom.Y() / size[1]
		assert.InDelta(t, ux, uy, 1e-4, "size %v", size)

		_, _, w, h := s.bounds()
		assert.GreaterOrEqual(t, 2/cam.Zoom.X(), w+2-1e-3)
		assert.GreaterOrEqual(t, -2/cam.Zoom.Y(), h+2-1e-3)
		assert.InDelta(t, w/2, cam.Target.X(), 1e-4)
		assert.InDelta(t, h/2, cam.Target.Y(), 1e-4)
	}
}

func TestScene_FreshBoard(t *testing.T) {
	var s scene
	field := logic.NewField()
	s.addBoard(field, nil, "")

	assert.Len(t, s.backgrounds, 2)
	assert.Empty(t, s.overlays, "no locked tiles, no outlines")

	want := 0
	field.Active().Cells(func(x, y int) { want++ })
	next := field.Next
	next.X, next.Y = 0, -1
	next.Cells(func(x, y int) {
		if y >= 0 && y < previewH {
			want++
		}
	})
	assert.Len(t, s.tiles, want)

	for _, tile := range s.tiles[:4] {
		assert.Equal(t, uint32(field.State.Piece.Color), tile.Tile)
		assert.Zero(t, tile.Shade, "a fresh piece has its whole lock delay left")
	}

	// gravity, level and lines, header and value each
	assert.Len(t, s.labels, 6)
	assert.Equal(t, "2 /128", s.labels[1].text)
	assert.Equal(t, "0 /100", s.labels[3].text)
	assert.Equal(t, "0", s.labels[5].text)
}

func TestScene_SecondBoardIsOffset(t *testing.T) {
	var s scene
	s.addBoard(logic.NewField(), nil, "")
	first := mgl32.Vec3(s.backgrounds[0].Vertices[0].Position)
	s.addBoard(logic.NewField(), nil, "other")
	second := mgl32.Vec3(s.backgrounds[2].Vertices[0].Position)

	assert.Equal(t, float32(boardWidth), second.X()-first.X())
	assert.Equal(t, first.Y(), second.Y())
	assert.Equal(t, "other", s.labels[len(s.labels)-1].text)
}

func TestScene_LockedTilesAndOutlines(t *testing.T) {
	var s scene
	field := logic.NewField()
	field.Well.Set(3, logic.WellRows-1, logic.Tile{Color: logic.Green})
	s.addBoard(field, nil, "")

	var locked int
	for _, tile := range s.tiles {
		if tile.Shade == lockedShade {
			locked++
			assert.Equal(t, uint32(logic.Green), tile.Tile)
			assert.Equal(t, [2]float32{boardPanel + 3, boardTop + logic.WellRows - 1}, tile.Offset)
		}
	}
	assert.Equal(t, 1, locked)
	// the floor is not empty, so top, left and right only
	assert.Len(t, s.overlays, 3)

	s.reset()
	field.Well.Set(3, logic.WellRows-3, logic.Tile{Color: logic.Green})
	s.addBoard(field, nil, "")
	// the floating tile is open on all four sides
	assert.Len(t, s.overlays, 3+4)
}

func TestScene_OutlineCorners(t *testing.T) {
	var s scene
	field := logic.NewField()
	// an L of three tiles on the floor leaves one inner corner
	field.Well.Set(0, logic.WellRows-1, logic.Tile{Color: logic.Red})
	field.Well.Set(1, logic.WellRows-1, logic.Tile{Color: logic.Red})
	field.Well.Set(0, logic.WellRows-2, logic.Tile{Color: logic.Red})
	s.addOutlines(&field.Well, 0, 0)

	var corners int
	for _, q := range s.overlays {
		w := mgl32.Vec3(q.Vertices[1].Position).X() - mgl32.Vec3(q.Vertices[0].Position).X()
		h := mgl32.Vec3(q.Vertices[3].Position).Y() - mgl32.Vec3(q.Vertices[0].Position).Y()
		if w == outlineWidth && h == outlineWidth {
			corners++
		}
	}
	assert.Equal(t, 1, corners)
}

func TestScene_GameOver(t *testing.T) {
	var s scene
	field := logic.NewField()
	field.Well.Set(0, 0, logic.Tile{Color: logic.Blue})
	field.State.Phase = logic.PhaseGameOver
	s.addBoard(field, nil, "")

	require.NotEmpty(t, s.tiles)
	assert.Equal(t, gameOverShade, s.tiles[0].Shade)
	last := s.labels[len(s.labels)-1]
	assert.Equal(t, "GAME OVER", last.text)
	assert.Equal(t, gameOverColor, last.color)
}

func TestScene_Cubes(t *testing.T) {
	var s scene
	s.addBoard(logic.NewField(), []Cube{{X: 2, Y: 5, Color: logic.Cyan}, {X: 1, Y: 1, Z: 35}}, "")
	assert.Len(t, s.cubes, 2)
}

func TestCubeQuad(t *testing.T) {
	q := cubeQuad(Cube{X: 2, Y: 5, Z: -0.5, Color: logic.Cyan}, 10, 3)
	assert.Equal(t, mgl32.Vec3{12, 8, -0.5}, mgl32.Vec3(q.Vertices[0].Position))
	assert.Equal(t, mgl32.Vec3{13, 9, -0.5}, mgl32.Vec3(q.Vertices[2].Position))
	assert.Equal(t, [4]float32(gfx.BlockColor(logic.Cyan)), q.Vertices[0].Color)

	turned := cubeQuad(Cube{RZ: math.Pi / 2}, 0, 0)
	edge := mgl32.Vec3(turned.Vertices[1].Position).Sub(mgl32.Vec3(turned.Vertices[0].Position))
	assert.InDelta(t, 0, edge.X(), 1e-5)
	assert.InDelta(t, 1, edge.Y(), 1e-5)
	center := mgl32.Vec3(turned.Vertices[0].Position).Add(mgl32.Vec3(turned.Vertices[2].Position)).Mul(0.5)
	assert.InDelta(t, 0.5, center.X(), 1e-5)
	assert.InDelta(t, 0.5, center.Y(), 1e-5)
}

func TestCubeCamera(t *testing.T) {
	var s scene
	s.addBoard(logic.NewField(), nil, "")
	const w, h = 1280, 720
	view := s.camera(w, h)
	cam := cubeCamera(view)

	// the well plane lands where the 2D view puts it
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {boardPanel, boardTop, 0}, {12.5, 20, 0}, {-1, 25, 0}} {
		want := gfx.WorldToView(view, w, h, p)
		got := gfx.WorldToView(cam, w, h, p)
		assert.InDelta(t, want.X(), got.X(), 0.05, "%v", p)
		assert.InDelta(t, want.Y(), got.Y(), 0.05, "%v", p)
	}

	size := func(c Cube) float32 {
		q := cubeQuad(c, boardPanel, boardTop)
		a := gfx.WorldToView(cam, w, h, q.Vertices[0].Position)
		b := gfx.WorldToView(cam, w, h, q.Vertices[1].Position)
		return b.Sub(a).Len()
	}
	flat := size(Cube{X: 4, Y: 10})
	assert.InDelta(t, 2*flat, size(Cube{X: 4, Y: 10, Z: -0.5 * cubeCameraDistance}), 0.05, "half the distance, twice the size")
	assert.Less(t, size(Cube{X: 4, Y: 10, Z: 1}), flat)
}

func TestGravityText(t *testing.T) {
	tests := []struct {
		level       uint32
		value, unit string
	}{
		{0, "2", " /128"},
		{30, "3", " /128"},
		{100, "40", " /128"},
		{251, "1", "G"},
		{500, "20", "G"},
	}
	for _, tt := range tests {
		value, unit := gravityText(tt.level)
		assert.Equal(t, tt.value, value, "level %d", tt.level)
		assert.Equal(t, tt.unit, unit, "level %d", tt.level)
	}
}

func TestLevelText(t *testing.T) {
	value, next := levelText(0)
	assert.Equal(t, "0", value)
	assert.Equal(t, " /100", next)

	value, next = levelText(150)
	assert.Equal(t, "150", value)
	assert.Equal(t, " /200", next)

	_, next = levelText(200)
	assert.Equal(t, " /300", next)
}
