package edrefis

import (
	"github.com/edrefis/edrefis/logic"
)

// Result describes a finished game.
type Result struct {
	Seed  uint32
	Level uint32
	Lines uint32
	// Ticks the game lasted, counted from its first tick.
	Ticks uint64
}

// Game owns the local player's field. Handlers registered with OnGameOver
// and OnRestart run from the update system on the tick the field changes
// phase.
type Game struct {
	Field  *logic.Field
	Sounds logic.Sounds
	Cubes  logic.Cubes

	phase      logic.Phase
	ticks      uint64
	onGameOver []func(Result)
	onRestart  []func()
}

func NewGame(seed uint32, sounds logic.Sounds) *Game {
	field := logic.NewSeededField(seed)
	return &Game{
		Field:  field,
		Sounds: sounds,
		Cubes:  logic.Nop{},
		phase:  field.State.Phase,
	}
}

func (g *Game) OnGameOver(fn func(Result)) {
	g.onGameOver = append(g.onGameOver, fn)
}

func (g *Game) OnRestart(fn func()) {
	g.onRestart = append(g.onRestart, fn)
}

// Ticks is the age of the current game in ticks.
func (g *Game) Ticks() uint64 {
	return g.ticks
}

// Update advances the field one tick and reports phase changes. It returns
// true when the field restarted after a game over; the caller then resets
// its inputs so the new game starts from a clean state.
func (g *Game) Update(inputs *logic.Inputs) bool {
	g.Field.Update(inputs, g.Sounds, g.Cubes)
	g.ticks++

	phase := g.Field.State.Phase
	defer func() { g.phase = phase }()
	switch {
	case phase == g.phase:
		return false

	case phase == logic.PhaseGameOver:
		result := Result{
			Seed:  g.Field.Seed,
			Level: g.Field.Level,
			Lines: g.Field.Lines,
			Ticks: g.ticks,
		}
		for _, fn := range g.onGameOver {
			fn(result)
		}
		return false

	case g.phase == logic.PhaseGameOver:
		g.ticks = 0
		for _, fn := range g.onRestart {
			fn()
		}
		return true
	}
	return false
}

// LogSounds stands in for audio by logging each cue at debug level.
type LogSounds struct {
	Log Logger
}

func (s LogSounds) BlockSpawn(next logic.Block) { s.Log.Debugf("sound: spawn, next %s", next) }
func (s LogSounds) LineClear()                  { s.Log.Debugf("sound: line clear") }
func (s LogSounds) Lock()                       { s.Log.Debugf("sound: lock") }
func (s LogSounds) Land()                       { s.Log.Debugf("sound: land") }

type GameModule struct {
	Seed uint32
	// Sounds defaults to LogSounds.
	Sounds logic.Sounds
}

func (mod GameModule) Install(app *App, cmd *Commands) {
	MustResource[PlayerInput](app)

	sounds := mod.Sounds
	if sounds == nil {
		sounds = LogSounds{Log: app.Logger()}
	}
	game := NewGame(mod.Seed, sounds)
	log := app.Logger()
	game.OnGameOver(func(r Result) {
		log.Infof("game over: level %d, %d lines in %d ticks", r.Level, r.Lines, r.Ticks)
	})
	cmd.AddResources(game)
	cmd.UseSystem(System(gameUpdateSystem).InStage(Update))
}

func gameUpdateSystem(game *Game, player *PlayerInput) {
	if game.Update(player.Inputs) {
		player.Inputs = logic.NewInputs()
	}
}
