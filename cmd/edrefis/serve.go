//go:build !js

package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edrefis/edrefis/netplay"
	"github.com/edrefis/edrefis/store"
)

var (
	serveListen string
	serveSeed   uint32
	serveRecord bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host online play",
	Long: `Runs the netplay server. The server follows every player's game from
the inputs they send so that players joining later see everyone's board.

With --record every game that ends on the server is added to the records
database under the player's client id.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().Uint32Var(&serveSeed, "seed", 0, "Seed every player plays (default from config)")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "Record finished games")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}
	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = serveSeed
	}

	g, ctx := errgroup.WithContext(ctx)

	var recorder netplay.Recorder
	if serveRecord {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		// games are written outside the world lock
		results := make(chan netplay.Result, 64)
		recorder = netplay.RecorderFunc(func(r netplay.Result) {
			select {
			case results <- r:
			default:
				logger.Warn("record queue full, dropping game", zap.Stringer("client", r.ClientID))
			}
		})
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case r := <-results:
					recordGame(ctx, db, r)
				}
			}
		})
	}

	server := netplay.NewServer(netplay.NewWorld(seed, recorder), logger.Named("server"))
	g.Go(func() error {
		return server.ListenAndServe(ctx, addr)
	})
	return g.Wait()
}

func recordGame(ctx context.Context, db *store.Store, r netplay.Result) {
	game := &store.Game{
		Player: r.ClientID.String(),
		Seed:   r.Seed,
		Level:  r.Level,
		Lines:  r.Lines,
		Ticks:  r.Ticks,
	}
	if err := db.SaveGame(ctx, game); err != nil {
		logger.Warn("game not recorded", zap.Error(err))
		return
	}
	logger.Info("game recorded",
		zap.Stringer("client", r.ClientID),
		zap.Uint32("level", r.Level),
		zap.Uint32("lines", r.Lines))
}
