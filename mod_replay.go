package edrefis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/replay"
)

// Recording is the replay state of the local player. Last is the most
// recently finished replay.
type Recording struct {
	Recorder *replay.Recorder
	Last     *replay.Replay
}

// ReplayModule records every game the local player plays. Recording pauses
// at game over and resumes with the next game.
type ReplayModule struct {
	// Dir receives one file per replay; empty keeps replays in memory only.
	Dir    string
	Player string
	// OnFinished is called with every replay that ended in a game over.
	OnFinished func(r *replay.Replay, result Result)
}

func (mod ReplayModule) Install(app *App, cmd *Commands) {
	player := MustResource[PlayerInput](app)
	game := MustResource[Game](app)
	log := app.Logger()

	recording := &Recording{}
	player.Wrap(func(source logic.InputProvider) logic.InputProvider {
		recording.Recorder = replay.NewRecorder(source, replay.New(game.Field.Seed, mod.Player))
		return recording.Recorder
	})

	game.OnGameOver(func(result Result) {
		r := recording.Recorder.Restart(nil)
		if r == nil {
			return
		}
		recording.Last = r
		if err := mod.save(r); err != nil {
			log.Errorf("replay: %v", err)
		}
		if mod.OnFinished != nil {
			mod.OnFinished(r, result)
		}
	})
	game.OnRestart(func() {
		recording.Recorder.Restart(replay.New(game.Field.Seed, mod.Player))
	})

	cmd.AddResources(recording)
	cmd.UseSystem(System(func(recording *Recording) error {
		r := recording.Recorder.Restart(nil)
		if r == nil || r.Ticks() == 0 {
			return nil
		}
		recording.Last = r
		return mod.save(r)
	}).InState(OnExit(StatePlaying)).InStage(PostUpdate))
}

func (mod ReplayModule) save(r *replay.Replay) error {
	if mod.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(mod.Dir, 0o755); err != nil {
		return fmt.Errorf("create replay dir: %w", err)
	}
	return replay.SaveFile(filepath.Join(mod.Dir, replay.FileName(r)), r)
}
