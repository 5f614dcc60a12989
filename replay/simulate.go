package replay

import (
	"fmt"

	"github.com/edrefis/edrefis/logic"
)

type Summary struct {
	Ticks    int
	Level    uint32
	Lines    uint32
	GameOver bool
}

func (s Summary) String() string {
	state := "unfinished"
	if s.GameOver {
		state = "game over"
	}
	return fmt.Sprintf("%d ticks, level %d, %d lines, %s", s.Ticks, s.Level, s.Lines, state)
}

// Player steps a headless field through a replay.
type Player struct {
	Field    *logic.Field
	Inputs   *logic.Inputs
	provider *Provider
	ticks    int
	over     bool
}

func NewPlayer(r *Replay) *Player {
	return &Player{
		Field:    logic.NewSeededField(r.Seed),
		Inputs:   logic.NewInputs(),
		provider: NewProvider(r),
	}
}

// Step runs one tick. It returns false once the replay is exhausted or the
// game ended, without touching the field.
func (p *Player) Step(sounds logic.Sounds, cubes logic.Cubes) bool {
	if p.Done() {
		return false
	}
	p.ticks++
	p.Inputs.Tick(uint64(p.ticks), p.provider)
	p.Field.Update(p.Inputs, sounds, cubes)
	if p.Field.State.Phase == logic.PhaseGameOver {
		p.over = true
	}
	return true
}

func (p *Player) Done() bool {
	return p.over || p.provider.Done()
}

func (p *Player) Summary() Summary {
	return Summary{
		Ticks:    p.ticks,
		Level:    p.Field.Level,
		Lines:    p.Field.Lines,
		GameOver: p.over,
	}
}

// Simulate plays r to its end and returns the final field.
func Simulate(r *Replay) (*logic.Field, Summary) {
	p := NewPlayer(r)
	for p.Step(logic.Nop{}, logic.Nop{}) {
	}
	return p.Field, p.Summary()
}
