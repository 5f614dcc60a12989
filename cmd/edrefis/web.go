//go:build !js

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edrefis/edrefis/web"
)

var (
	webListen string
	webDist   string
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the browser build",
	Long: `Serves the page hosting the WebAssembly build. --dist must contain
edrefis.wasm, built with

  GOOS=js GOARCH=wasm go build -o dist/edrefis.wasm ./cmd/edrefis-web

and wasm_exec.js from $(go env GOROOT)/lib/wasm.`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&webListen, "listen", ":8080", "Listen address")
	webCmd.Flags().StringVar(&webDist, "dist", "dist", "Directory with edrefis.wasm and wasm_exec.js")
}

func webHandler(dist string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(web.Files)))
	mux.Handle("/dist/", http.StripPrefix("/dist/", http.FileServer(http.Dir(dist))))
	return mux
}

func runWeb(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if _, err := os.Stat(filepath.Join(webDist, "edrefis.wasm")); err != nil {
		logger.Warn("wasm build missing", zap.String("dist", webDist), zap.Error(err))
	}

	server := &http.Server{
		Addr:              webListen,
		Handler:           webHandler(webDist),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving web build", zap.String("addr", webListen))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
