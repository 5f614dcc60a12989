package edrefis

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: newApp()}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.finalState = finalState

	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build creates the default stages and installs the modules in the order
// they were added. Modules may rely on resources of earlier modules.
func (b *AppBuilder) Build() *App {
	app := b.app
	for _, stage := range defaultStages {
		app.schedule = append(app.schedule, newStageSchedule(stage))
	}

	commands := app.Commands()
	for _, module := range b.modules {
		module.Install(app, commands)
	}

	return app
}

// NewGameApp builds the usual stateful app, playing until quit, with the
// given modules.
func NewGameApp(modules ...Module) *App {
	return NewAppBuilder().
		UseStates(StatePlaying, StateQuit).
		UseModule(modules...).
		Build()
}
