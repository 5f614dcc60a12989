package edrefis

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
	// Ticks counts logic ticks, Frames drawn frames.
	Ticks  uint64
	Frames uint64
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	cmd.UseSystem(System(frameTimeSystem).InStage(Prelude))
	cmd.UseSystem(System(tickCountSystem).InStage(PreUpdate))
}

func frameTimeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Frames++
}

func tickCountSystem(timeResource *Time) {
	timeResource.Ticks++
}

// MaxCatchUp bounds the ticks a TickClock hands out at once, so a host
// that stalled (a hidden browser tab) does not fast-forward the game.
const MaxCatchUp = TickRate

// TickClock converts wall time into the number of logic ticks due, keeping
// the long run average at exactly TickRate whatever the frame rate.
type TickClock struct {
	start time.Time
	ticks uint64
}

func NewTickClock(start time.Time) *TickClock {
	return &TickClock{start: start}
}

// Due returns how many ticks should run now and counts them as run.
func (c *TickClock) Due(now time.Time) int {
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		return 0
	}
	expected := uint64(elapsed / TickPeriod)
	if expected <= c.ticks {
		return 0
	}
	due := expected - c.ticks
	if due > MaxCatchUp {
		due = MaxCatchUp
		// forget the backlog
		c.start = now.Add(-time.Duration(c.ticks+due) * TickPeriod)
	}
	c.ticks += due
	return int(due)
}

func (c *TickClock) Ticks() uint64 {
	return c.ticks
}
