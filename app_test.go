package edrefis

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

type counter struct {
	calls []string
}

func (c *counter) add(name string) {
	c.calls = append(c.calls, name)
}

// moduleFunc turns a function into a Module.
type moduleFunc func(app *App, cmd *Commands)

func (f moduleFunc) Install(app *App, cmd *Commands) { f(app, cmd) }

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := &MockResource2{name: "Resource2"}
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem())

	require.Panics(t, func() {
		app.addResources(MockResource2{})
	})
}

func TestResource(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(&MockResource1{name: "r"})

	res, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Equal(t, "r", res.name)

	_, ok = Resource[MockResource2](app)
	assert.False(t, ok)
	assert.Panics(t, func() { MustResource[MockResource2](app) })
}

func TestApp_TickAndDrawRunTheirStages(t *testing.T) {
	c := &counter{}
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.AddResources(c)
		for _, stage := range defaultStages {
			name := stage.Name
			cmd.UseSystem(System(func(c *counter) { c.add(name) }).InStage(stage))
		}
	}))

	app.Tick()
	assert.Equal(t, []string{"PreUpdate", "Update", "PostUpdate"}, c.calls)

	c.calls = nil
	require.NoError(t, app.Draw())
	assert.Equal(t, []string{"Prelude", "PreRender", "Render", "PostRender", "Finale"}, c.calls)
}

func TestApp_StateSystems(t *testing.T) {
	c := &counter{}
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.AddResources(c)
		cmd.UseSystem(System(func(c *counter) { c.add("enter") }).InState(OnEnter(StatePlaying)))
		cmd.UseSystem(System(func(c *counter) { c.add("execute") }).InState(OnExecute(StatePlaying)))
		cmd.UseSystem(System(func(c *counter) { c.add("exit") }).InState(OnExit(StatePlaying)))
		cmd.UseSystem(System(func(c *counter, cmd *Commands) {
			if len(c.calls) > 2 {
				cmd.Quit()
			}
		}).InStage(PostUpdate))
	}))

	app.Tick()
	assert.Equal(t, []string{"enter", "execute"}, c.calls)
	assert.False(t, app.Done())

	app.Tick()
	assert.Equal(t, []string{"enter", "execute", "execute", "exit"}, c.calls)
	assert.True(t, app.Done())

	app.Tick()
	assert.Len(t, c.calls, 4, "a finished app does nothing")
	assert.NoError(t, app.Draw())
}

func TestApp_UnboundSystemsRunFirstAndOnlyOnExecute(t *testing.T) {
	c := &counter{}
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.AddResources(c)
		cmd.UseSystem(System(func(c *counter) { c.add("bound") }).InState(OnExecute(StatePlaying)))
		cmd.UseSystem(System(func(c *counter) { c.add("enter") }).InState(OnEnter(StatePlaying)))
		cmd.UseSystem(System(func(c *counter) { c.add("unbound") }).InAnyState())
	}))

	app.Tick()
	assert.Equal(t, []string{"enter", "unbound", "bound"}, c.calls)
}

func TestApp_StatelessAppRejectsBoundSystems(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.PanicsWithValue(t, "state bound system in a stateless app", func() {
		app.UseSystem(System(func() {}).InState(OnEnter(StatePlaying)))
	})
	assert.PanicsWithValue(t, "stage Nope not found", func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "Nope"}))
	})
	assert.NotPanics(t, func() { app.UseSystem(System(func() {}).InState(Always())) })
}

func TestApp_DrawReturnsSystemErrors(t *testing.T) {
	errFirst := errors.New("first")
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.UseSystem(System(func() error { return nil }).InStage(PreRender))
		cmd.UseSystem(System(func() error { return errFirst }).InStage(Render))
		cmd.UseSystem(System(func() error { return errors.New("second") }).InStage(PostRender))
	}))

	err := app.Draw()
	require.ErrorIs(t, err, errFirst)
	assert.Contains(t, err.Error(), "first")

	assert.ErrorIs(t, app.Draw(), errFirst, "errors do not carry over between frames")
}

func TestApp_SystemWithValueParameterPanics(t *testing.T) {
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.AddResources(&MockResource1{})
		cmd.UseSystem(System(func(MockResource1) {}))
	}))

	assert.Panics(t, app.Tick)
}

func TestApp_MissingResourcePanics(t *testing.T) {
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.UseSystem(System(func(*MockResource2) {}))
	}))

	assert.Panics(t, app.Tick)
}

func TestApp_KeysAndResize(t *testing.T) {
	app := NewGameApp(TimeModule{}, InputModule{})
	surface := &Surface{Width: 100, Height: 50}
	app.addResources(surface)

	app.KeyDown("ArrowLeft")
	kb := MustResource[Keyboard](app)
	assert.True(t, kb.Down("ArrowLeft"))
	app.KeyUp("ArrowLeft")
	assert.False(t, kb.Down("ArrowLeft"))

	app.Resize(0, 10)
	assert.False(t, surface.TakeResize())
	app.Resize(640, 480)
	assert.True(t, surface.TakeResize())
	assert.Equal(t, 640, surface.Width)
	assert.Equal(t, 480, surface.Height)
	assert.False(t, surface.TakeResize())
}

func TestApp_UseStage(t *testing.T) {
	extra := Stage{Name: "Extra", UpdateType: FixedUpdate}
	c := &counter{}
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		app.UseStage(extra, AfterStage(PreUpdate))
		cmd.AddResources(c)
		cmd.UseSystem(System(func(c *counter) { c.add("update") }))
		cmd.UseSystem(System(func(c *counter) { c.add("extra") }).InStage(extra))
	}))

	app.Tick()

	assert.Equal(t, []string{"extra", "update"}, c.calls)
	assert.Panics(t, func() { app.UseStage(extra, BeforeStage(Stage{Name: "Nope"})) })
}

func TestApp_RunUntilQuit(t *testing.T) {
	var ticks, draws int
	app := NewGameApp(moduleFunc(func(app *App, cmd *Commands) {
		cmd.UseSystem(System(func(cmd *Commands) {
			ticks++
			if ticks == 5 {
				cmd.Quit()
			}
		}).InStage(Update))
		cmd.UseSystem(System(func() { draws++ }).InStage(Render))
	}))

	app.Run()
	assert.True(t, app.Done())
	assert.GreaterOrEqual(t, ticks, 5)
	assert.LessOrEqual(t, ticks, 6)
	// a late step skips at most every other draw
	assert.GreaterOrEqual(t, draws, 2)
	assert.Less(t, draws, ticks)
}
