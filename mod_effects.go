package edrefis

import (
	"math"

	"github.com/edrefis/edrefis/logic"
)

// CubeLifetime is how many ticks cubes stay after the most recent spawn.
const CubeLifetime = 41

// Cube is one tile thrown out of the well by a line clear. Positions are in
// well cells; Z is depth, negative towards the viewer.
type Cube struct {
	X, Y, Z, RZ     float32
	DX, DY, DZ, DRZ float32
	DDY             float32
	Color           logic.Block
}

func lerp(a, b, f float32) float32 {
	return a*(1-f) + b*f
}

// Effects holds the cubes of one field.
type Effects struct {
	Cubes    []Cube
	cooldown uint32
}

func (e *Effects) SpawnCube(x, y int, color logic.Block) {
	const cols, rows = float32(logic.WellCols), float32(logic.WellRows)
	fx, fy := float32(x), float32(y)
	base := lerp(0.045, 0.025, fy/rows)
	horiz := lerp(1, 0.75, float32(math.Abs(float64(fx-cols/2)))/cols/2)
	e.Cubes = append(e.Cubes, Cube{
		X:     fx,
		Y:     fy,
		DX:    (fx - cols/2) / 40,
		DY:    -0.28,
		DDY:   base * horiz,
		DZ:    -0.02,
		DRZ:   -0.1,
		Color: color,
	})
	e.cooldown = CubeLifetime
}

// Tick moves every cube and drops them all once the cooldown runs out.
func (e *Effects) Tick() {
	for i := range e.Cubes {
		c := &e.Cubes[i]
		c.X += c.DX
		c.Y += c.DY
		c.Z += c.DZ
		c.RZ += c.DRZ
		c.DY += c.DDY
	}
	e.cooldown--
	if e.cooldown == 0 {
		e.Cubes = e.Cubes[:0]
	}
}

// EffectsModule throws cubes out of the local field on line clears.
type EffectsModule struct{}

func (EffectsModule) Install(app *App, cmd *Commands) {
	game := MustResource[Game](app)
	effects := &Effects{}
	game.Cubes = effects
	cmd.AddResources(effects)
	cmd.UseSystem(System(effectsTickSystem).InStage(PostUpdate))
}

func effectsTickSystem(effects *Effects) {
	effects.Tick()
}
