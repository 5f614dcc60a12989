package edrefis

type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

// Quit moves the app to its final state at the end of the current stage
// pass.
func (cmd *Commands) Quit() *Commands {
	return cmd.ChangeState(cmd.app.finalState)
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system scheduledSystem) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}
