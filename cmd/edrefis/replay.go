//go:build !js

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edrefis/edrefis/replay"
	"github.com/edrefis/edrefis/store"
	"github.com/edrefis/edrefis/tui"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Watch or verify replays",
}

var replayViewCmd = &cobra.Command{
	Use:   "view FILE|ID",
	Short: "Play a replay back in the terminal",
	Long: `Plays a replay file, or the replay of a recorded game given by its id,
in the terminal. Space pauses, + and - change speed, . steps while paused,
r restarts and q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplayView,
}

var replayVerifyCmd = &cobra.Command{
	Use:   "verify FILE|ID...",
	Short: "Re-simulate replays and check them against their records",
	Long: `Runs each replay headlessly and prints where it ends. When the replay
belongs to a recorded game the level and line count must match the record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplayVerify,
}

func init() {
	replayCmd.AddCommand(replayViewCmd)
	replayCmd.AddCommand(replayVerifyCmd)
}

// loadReplay reads a replay file, or the stored game whose id is arg.
func loadReplay(ctx context.Context, db *store.Store, arg string) (*replay.Replay, error) {
	if id, err := uuid.Parse(arg); err == nil && db != nil {
		game, err := db.Game(ctx, id)
		if err != nil {
			return nil, err
		}
		if game.Replay == nil {
			return nil, fmt.Errorf("game %s has no replay", id)
		}
		return game.Replay, nil
	}
	return replay.LoadFile(arg)
}

// openRecords opens the records database, or returns nil when it cannot.
func openRecords() *store.Store {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil
	}
	return db
}

func runReplayView(cmd *cobra.Command, args []string) error {
	db := openRecords()
	if db != nil {
		defer db.Close()
	}
	r, err := loadReplay(cmd.Context(), db, args[0])
	if err != nil {
		return err
	}
	summary, err := tui.Run(r)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

var errMismatch = errors.New("replay does not match its record")

func runReplayVerify(cmd *cobra.Command, args []string) error {
	db := openRecords()
	if db != nil {
		defer db.Close()
	}
	out := cmd.OutOrStdout()
	var failed []error
	for _, arg := range args {
		r, err := loadReplay(cmd.Context(), db, arg)
		if err != nil {
			failed = append(failed, err)
			fmt.Fprintf(out, "%s: %v\n", arg, err)
			continue
		}
		field, summary := replay.Simulate(r)
		fmt.Fprintf(out, "%s: %s\n", arg, summary)
		if db == nil {
			continue
		}
		game, err := db.Game(cmd.Context(), r.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			failed = append(failed, err)
			continue
		}
		if game.Level != field.Level || game.Lines != field.Lines {
			err := fmt.Errorf("%w: %s recorded level %d with %d lines, replay reaches level %d with %d lines",
				errMismatch, arg, game.Level, game.Lines, field.Level, field.Lines)
			fmt.Fprintln(out, err)
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}
