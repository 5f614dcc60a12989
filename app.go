package edrefis

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/edrefis/edrefis/nanotime"
)

// TickRate is the logic rate in ticks per second.
const TickRate = 60

// TickPeriod is the duration of one logic tick.
const TickPeriod = time.Second / TickRate

type systemFn any

// App schedules systems over stages and owns the resources they share. The
// host drives it through Tick, Draw, Resize, KeyDown and KeyUp, or hands
// control to Run.
type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	started            bool
	finished           bool
	schedule           schedule
	resources          map[reflect.Type]any

	// errors returned by systems during the current Tick or Draw
	errs []error
}

func newApp() *App {
	app := &App{
		resources: make(map[reflect.Type]any),
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Done reports whether the app reached its final state.
func (app *App) Done() bool {
	return app.finished
}

func (app *App) start() {
	if app.started {
		return
	}
	app.started = true
	if app.stateful {
		app.state = app.initialState
		app.callSystems(app.state, enter)
		app.settleState()
	}
}

// Tick runs the fixed update stages once. Errors from systems are logged.
func (app *App) Tick() {
	app.start()
	if app.finished {
		return
	}
	app.callSystems(app.state, execute, FixedUpdate)
	app.settleState()
	for _, err := range app.takeErrors() {
		app.Logger().Errorf("tick: %v", err)
	}
}

// Draw runs the per-frame stages once and returns the first error a
// system reported.
func (app *App) Draw() error {
	app.start()
	if app.finished {
		return nil
	}
	app.callSystems(app.state, execute, DynamicUpdate)
	app.settleState()
	errs := app.takeErrors()
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs[1:] {
		app.Logger().Debugf("draw: %v", err)
	}
	return errs[0]
}

// Resize records a new drawable size. Zero or negative sizes are ignored.
func (app *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if surface, ok := Resource[Surface](app); ok {
		surface.Resize(width, height)
	}
}

// KeyDown and KeyUp take DOM KeyboardEvent.code names such as "ArrowUp".
func (app *App) KeyDown(code string) {
	if kb, ok := Resource[Keyboard](app); ok {
		kb.Press(code)
	}
}

func (app *App) KeyUp(code string) {
	if kb, ok := Resource[Keyboard](app); ok {
		kb.Release(code)
	}
}

// Run ticks at TickRate and draws after every tick until the final state
// is reached. When the loop falls behind a single draw is skipped so the
// ticks can catch up.
func (app *App) Run() {
	app.start()
	if app.stateful {
		app.Logger().Infof("Running in stateful mode...")
	} else {
		app.Logger().Infof("Running in stateless mode...")
	}

	stepper := nanotime.NewStepper(TickPeriod)
	skipped := false
	for !app.finished {
		onTime := stepper.Step()
		app.Tick()
		if !onTime && !skipped {
			skipped = true
			continue
		}
		skipped = false
		if err := app.Draw(); err != nil {
			app.Logger().Warnf("draw: %v", err)
		}
	}
}

func (app *App) takeErrors() []error {
	errs := app.errs
	app.errs = nil
	return errs
}

// callSystems runs the systems bound to phase of state in every stage whose
// update type is listed, or in all stages when none is.
func (app *App) callSystems(state State, phase statePhase, types ...UpdateType) {
	slot := stateSlot{state: state, phase: phase}
	for _, stage := range app.schedule {
		if len(types) > 0 && !containsUpdateType(types, stage.UpdateType) {
			continue
		}
		for _, system := range stage.systems(slot, app.stateful) {
			app.callSystem(system)
		}
	}
}

func containsUpdateType(types []UpdateType, t UpdateType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) settleState() {
	if !app.stateful {
		return
	}
	for app.stateTransitioning {
		app.stateTransitioning = false
		app.executeChangeState(app.nextState)
	}
	if app.state == app.finalState && !app.finished {
		app.callSystems(app.state, exit)
		app.finished = true
	}
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("%s is not a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource looks up the resource of type *T.
func Resource[T any](app *App) (*T, bool) {
	res, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return res.(*T), true
}

// MustResource is Resource for modules that cannot work without one.
func MustResource[T any](app *App) *T {
	res, ok := Resource[T](app)
	if !ok {
		panic(fmt.Sprintf("%s is not in resources", reflect.TypeFor[T]()))
	}
	return res
}

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfError    = reflect.TypeOf((*error)(nil)).Elem()
)

func systemName(system systemFn) string {
	name := runtime.FuncForPC(reflect.ValueOf(system).Pointer()).Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("System %s takes %s by value, resources are passed as pointers", systemName(system), argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				systemName(system),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}

	out := systemValue.Call(args)
	if n := len(out); n > 0 && systemType.Out(n-1) == typeOfError && !out[n-1].IsNil() {
		err := out[n-1].Interface().(error)
		app.errs = append(app.errs, fmt.Errorf("%s: %w", systemName(system), err))
	}
}
