package edrefis

import (
	"fmt"
	"slices"
)

type State int

const (
	StatePlaying State = iota
	StateQuit
)

// UpdateType picks the host call that runs a stage: Tick runs the fixed
// stages, Draw the dynamic ones.
type UpdateType int

const (
	// FixedUpdate stages run once per 60Hz logic tick.
	FixedUpdate UpdateType = iota
	// DynamicUpdate stages run once per drawn frame.
	DynamicUpdate
)

type Stage struct {
	Name       string
	UpdateType UpdateType
}

var (
	Prelude    = Stage{Name: "Prelude", UpdateType: DynamicUpdate}
	PreUpdate  = Stage{Name: "PreUpdate", UpdateType: FixedUpdate}
	Update     = Stage{Name: "Update", UpdateType: FixedUpdate}
	PostUpdate = Stage{Name: "PostUpdate", UpdateType: FixedUpdate}
	PreRender  = Stage{Name: "PreRender", UpdateType: DynamicUpdate}
	Render     = Stage{Name: "Render", UpdateType: DynamicUpdate}
	PostRender = Stage{Name: "PostRender", UpdateType: DynamicUpdate}
	Finale     = Stage{Name: "Finale", UpdateType: DynamicUpdate}
)

var defaultStages = []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}

type statePhase int

const (
	enter statePhase = iota
	execute
	exit
)

// stateSlot is the point in the state machine a system is bound to.
type stateSlot struct {
	state State
	phase statePhase
}

// stageSchedule holds the systems of one stage. Unbound systems run on
// every pass through the stage, before the ones bound to the current slot.
type stageSchedule struct {
	Stage
	unbound []systemFn
	bound   map[stateSlot][]systemFn
}

func newStageSchedule(stage Stage) *stageSchedule {
	return &stageSchedule{Stage: stage, bound: make(map[stateSlot][]systemFn)}
}

// systems lists what runs in the stage for the given slot. Unbound systems
// only take part in the execute phase.
func (s *stageSchedule) systems(slot stateSlot, stateful bool) []systemFn {
	var out []systemFn
	if slot.phase == execute {
		out = append(out, s.unbound...)
	}
	if stateful {
		out = append(out, s.bound[slot]...)
	}
	return out
}

// schedule is the ordered list of stages an App runs.
type schedule []*stageSchedule

func (sc schedule) stages() []Stage {
	stages := make([]Stage, len(sc))
	for i, s := range sc {
		stages[i] = s.Stage
	}
	return stages
}

func (sc schedule) find(name string) int {
	return slices.IndexFunc(sc, func(s *stageSchedule) bool { return s.Name == name })
}

// placement says when, relative to the state machine, a system runs.
type placement struct {
	slot  stateSlot
	bound bool
}

func OnEnter(state State) placement {
	return placement{slot: stateSlot{state, enter}, bound: true}
}

func OnExecute(state State) placement {
	return placement{slot: stateSlot{state, execute}, bound: true}
}

func OnExit(state State) placement {
	return placement{slot: stateSlot{state, exit}, bound: true}
}

// Always places a system outside the state machine.
func Always() placement {
	return placement{}
}

type scheduledSystem struct {
	fn    systemFn
	stage Stage
	placement
}

// System wraps a function for scheduling in Update. Its pointer parameters
// are resolved from the app's resources when it runs; an error result is
// reported by the Tick or Draw that ran it.
func System(fn systemFn) scheduledSystem {
	return scheduledSystem{fn: fn, stage: Update}
}

func (s scheduledSystem) InStage(stage Stage) scheduledSystem {
	s.stage = stage
	return s
}

func (s scheduledSystem) InState(p placement) scheduledSystem {
	s.placement = p
	return s
}

func (s scheduledSystem) RunAlways() scheduledSystem {
	s.placement = Always()
	return s
}

func (s scheduledSystem) InAnyState() scheduledSystem {
	return s.RunAlways()
}

// stageAnchor names an existing stage and an offset from it.
type stageAnchor struct {
	target Stage
	offset int
}

func BeforeStage(s Stage) stageAnchor {
	return stageAnchor{target: s}
}

func AfterStage(s Stage) stageAnchor {
	return stageAnchor{target: s, offset: 1}
}

// UseStage inserts an empty stage next to an existing one.
func (app *App) UseStage(stage Stage, at stageAnchor) *App {
	i := app.schedule.find(at.target.Name)
	if i < 0 {
		panic(fmt.Sprintf("stage %s not found", at.target.Name))
	}
	app.schedule = slices.Insert(app.schedule, i+at.offset, newStageSchedule(stage))
	return app
}

func (app *App) UseSystem(system scheduledSystem) *App {
	i := app.schedule.find(system.stage.Name)
	if i < 0 {
		panic(fmt.Sprintf("stage %s not found", system.stage.Name))
	}
	stage := app.schedule[i]

	if !system.bound {
		stage.unbound = append(stage.unbound, system.fn)
		return app
	}
	if !app.stateful {
		panic("state bound system in a stateless app")
	}
	if s := system.slot.state; s < app.initialState || s > app.finalState {
		panic(fmt.Sprintf("state %d outside %d..%d", s, app.initialState, app.finalState))
	}
	stage.bound[system.slot] = append(stage.bound[system.slot], system.fn)
	return app
}
