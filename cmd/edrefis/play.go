//go:build !js

package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edrefis/edrefis"
	"github.com/edrefis/edrefis/config"
	"github.com/edrefis/edrefis/netplay"
	"github.com/edrefis/edrefis/replay"
	"github.com/edrefis/edrefis/store"
)

var (
	playSeed   uint32
	playPlayer string
	playOnline bool
	playServer string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in a window",
	Long: `Opens a window and plays. Every game is recorded as a replay and
finished games are kept in the records database.

With --online the game joins a server and shows the other players'
boards next to yours. Everyone on a server plays the same seed.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Uint32Var(&playSeed, "seed", 0, "Randomizer seed (default from config)")
	playCmd.Flags().StringVar(&playPlayer, "player", "", "Player name (default from config)")
	playCmd.Flags().BoolVar(&playOnline, "online", false, "Join the configured server")
	playCmd.Flags().StringVar(&playServer, "server", "", "Join this server URL")
}

// quitOnDone ends the app when ctx is cancelled.
type quitOnDone struct {
	ctx context.Context
}

func (m quitOnDone) Install(app *edrefis.App, cmd *edrefis.Commands) {
	cmd.UseSystem(edrefis.System(func(cmd *edrefis.Commands) {
		if m.ctx.Err() != nil {
			cmd.Quit()
		}
	}).InStage(edrefis.Prelude))
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = playSeed
	}
	player := cfg.Player
	if playPlayer != "" {
		player = playPlayer
	}
	keymap, err := edrefis.KeymapFromNames(cfg.Keys)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Warn("records disabled", zap.Error(err))
		db = nil
	} else {
		defer db.Close()
	}

	modules := []edrefis.Module{
		edrefis.LoggingModule{Base: logger, Prefix: "app", Debug: verbose},
		edrefis.TimeModule{},
		edrefis.InputModule{Keymap: &keymap, QuitKey: cfg.QuitKey, Reload: watchKeymap(ctx)},
		quitOnDone{ctx: ctx},
		edrefis.WindowModule{Width: cfg.Window.Width, Height: cfg.Window.Height, Title: cfg.Window.Title},
		edrefis.GameModule{Seed: seed},
		edrefis.EffectsModule{},
	}

	replayDir := ""
	if cfg.Replay.Record {
		replayDir = cfg.Replay.Dir
	}
	modules = append(modules, edrefis.ReplayModule{
		Dir:    replayDir,
		Player: player,
		OnFinished: func(r *replay.Replay, result edrefis.Result) {
			if db == nil {
				return
			}
			g := &store.Game{
				ID:     r.ID,
				Player: r.Player,
				Seed:   result.Seed,
				Level:  result.Level,
				Lines:  result.Lines,
				Ticks:  result.Ticks,
				Replay: r,
			}
			if err := db.SaveGame(ctx, g); err != nil {
				logger.Warn("game not recorded", zap.Error(err))
			}
		},
	})

	url := playServer
	if url == "" && playOnline {
		url = cfg.Server.URL
	}
	if url != "" {
		dialCtx, cancelDial := context.WithTimeout(ctx, 10*time.Second)
		client, err := netplay.Dial(dialCtx, url, uuid.New(), logger.Named("net"))
		cancelDial()
		if err != nil {
			return err
		}
		modules = append(modules, edrefis.NetModule{Client: client})
	}

	modules = append(modules, edrefis.RendererModule{
		FontSize: cfg.Window.FontSize,
		ShowPerf: cfg.Window.ShowPerf,
	})

	app := edrefis.NewGameApp(modules...)
	defer edrefis.MustResource[edrefis.Window](app).Destroy()
	if err := edrefis.InitRenderer(app); err != nil {
		return err
	}
	app.Run()
	return nil
}

// watchKeymap follows key binding changes in the config file. A missing
// config directory disables it.
func watchKeymap(ctx context.Context) <-chan edrefis.Keymap {
	w, err := config.Watch(ctx, configPath, logger.Named("config"))
	if err != nil {
		logger.Debug("config not watched", zap.Error(err))
		return nil
	}
	keymaps := make(chan edrefis.Keymap, 1)
	go func() {
		defer close(keymaps)
		for c := range w.Updates() {
			km, err := edrefis.KeymapFromNames(c.Keys)
			if err != nil {
				logger.Warn("key bindings not reloaded", zap.Error(err))
				continue
			}
			select {
			case <-keymaps:
			default:
			}
			keymaps <- km
		}
	}()
	return keymaps
}
