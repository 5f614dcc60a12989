package logic

import (
	"fmt"
	"slices"
)

const (
	LineClearTicks  = 41
	PlaceDelayTicks = 30
	GameOverTicks   = 60 * 5
)

type Phase uint8

const (
	PhaseActivePiece Phase = iota
	PhaseClearDelay
	PhasePlaceDelay
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseActivePiece:
		return "active"
	case PhaseClearDelay:
		return "clear-delay"
	case PhasePlaceDelay:
		return "place-delay"
	case PhaseGameOver:
		return "game-over"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// State is the field's current phase and the data that phase needs. Piece
// and FirstFrame are meaningful only while a piece is active, RowsToLower
// only during a clear delay.
type State struct {
	Phase          Phase `json:"phase"`
	Piece          Piece `json:"piece"`
	FirstFrame     bool  `json:"first_frame"`
	TicksRemaining int   `json:"ticks_remaining"`
	RowsToLower    []int `json:"rows_to_lower,omitempty"`
}

type Field struct {
	Seed       uint32     `json:"seed"`
	Randomizer Randomizer `json:"randomizer"`
	Well       Well       `json:"well"`
	Next       Piece      `json:"next"`
	Level      uint32     `json:"level"`
	Lines      uint32     `json:"lines"`
	State      State      `json:"state"`
}

func NewField() *Field {
	return NewSeededField(DefaultSeed)
}

func NewSeededField(seed uint32) *Field {
	f := &Field{Seed: seed}
	f.reset()
	return f
}

func (f *Field) reset() {
	f.Randomizer = NewRandomizer(f.Seed)
	f.Well = NewWell()
	f.Next = f.Randomizer.NextPiece()
	f.State = State{
		Phase:      PhaseActivePiece,
		Piece:      f.Randomizer.NextPiece(),
		FirstFrame: true,
	}
	f.Level = 0
	f.Lines = 0
}

// Active returns the falling piece, or nil outside the active phase.
func (f *Field) Active() *Piece {
	if f.State.Phase != PhaseActivePiece {
		return nil
	}
	return &f.State.Piece
}

func (f *Field) Clone() *Field {
	c := *f
	c.State.RowsToLower = slices.Clone(f.State.RowsToLower)
	return &c
}

// LevelToGravity returns the gravity rate in 1/256 rows per tick.
func LevelToGravity(level uint32) int {
	for _, step := range gravityTable {
		if level >= step.level {
			return step.rate
		}
	}
	return 4
}

var gravityTable = [...]struct {
	level uint32
	rate  int
}{
	{500, 5120},
	{450, 768},
	{420, 1024},
	{400, 1280},
	{360, 1024},
	{330, 768},
	{300, 512},
	{251, 256},
	{247, 224},
	{243, 192},
	{239, 160},
	{236, 128},
	{233, 96},
	{230, 64},
	{220, 32},
	{200, 4},
	{170, 144},
	{160, 128},
	{140, 112},
	{120, 96},
	{100, 80},
	{90, 64},
	{80, 48},
	{70, 32},
	{60, 16},
	{50, 12},
	{40, 10},
	{35, 8},
	{30, 6},
}

// Update advances the field by one tick.
func (f *Field) Update(inputs *Inputs, sounds Sounds, cubes Cubes) {
	switch f.State.Phase {
	case PhaseActivePiece:
		f.updateActive(inputs, sounds, cubes)

	case PhaseClearDelay:
		f.State.TicksRemaining--
		if f.State.TicksRemaining == 0 {
			f.Well.CommitClear(f.State.RowsToLower)
			f.State = State{Phase: PhasePlaceDelay, TicksRemaining: PlaceDelayTicks}
		}

	case PhasePlaceDelay:
		f.State.TicksRemaining--
		if f.State.TicksRemaining == 0 {
			f.spawn(inputs, sounds, cubes)
		}

	case PhaseGameOver:
		f.State.TicksRemaining--
		if f.State.TicksRemaining == 0 {
			f.reset()
		}
	}
}

func (f *Field) updateActive(inputs *Inputs, sounds Sounds, cubes Cubes) {
	piece := &f.State.Piece
	piece.DoSonic(&f.Well, inputs)
	piece.DoRotate(&f.Well, inputs)
	if !f.State.FirstFrame {
		piece.DoHorizontal(&f.Well, inputs)
	} else {
		f.State.FirstFrame = false
	}
	piece.DoGravity(&f.Well, inputs, LevelToGravity(f.Level), sounds)

	if !piece.DoLock(&f.Well, inputs, sounds) {
		return
	}

	cleared := f.Well.Clear()
	if len(cleared) == 0 {
		f.State = State{Phase: PhasePlaceDelay, TicksRemaining: PlaceDelayTicks}
		return
	}

	sounds.LineClear()
	f.Level += uint32(len(cleared))
	f.Lines += uint32(len(cleared))

	rows := make([]int, 0, len(cleared))
	for _, c := range cleared {
		rows = append(rows, c.Y)
		for x, cell := range c.Row {
			cubes.SpawnCube(x, c.Y, cell.Color)
		}
	}
	f.State = State{Phase: PhaseClearDelay, TicksRemaining: LineClearTicks, RowsToLower: rows}
}

// spawn activates the next piece once the place delay ran out. Holding a
// rotation key turns the piece before it enters the well.
func (f *Field) spawn(inputs *Inputs, sounds Sounds, cubes Cubes) {
	if inputs.KeyPressed(CW) {
		f.Next.Rotation = f.Next.Rotation.CW()
	} else if inputs.KeyPressed(CCW) {
		f.Next.Rotation = f.Next.Rotation.CCW()
	}
	if f.Level%100 != 99 {
		f.Level++
	}
	if f.Next.CollidesWith(&f.Well, 0, 0, f.Next.Rotation) {
		f.State = State{Phase: PhaseGameOver, TicksRemaining: GameOverTicks}
		return
	}

	f.State = State{Phase: PhaseActivePiece, Piece: f.Next, FirstFrame: true}
	f.Next = f.Randomizer.NextPiece()
	sounds.BlockSpawn(f.Next.Color)
	f.Update(inputs, sounds, cubes)
}
