package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk. Invalid
// versions are logged and skipped.
type Watcher struct {
	path    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
	updates chan *Config
	done    chan struct{}
}

// Watch starts watching path until ctx is done. The file's directory is
// watched so that editors replacing the file are noticed too.
func Watch(ctx context.Context, path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path = filepath.Clean(path)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	w := &Watcher{
		path:    path,
		log:     log.With(zap.String("config", path)),
		watcher: fw,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Updates delivers each successfully reloaded config. Only the newest
// unread one is kept. The channel is closed when watching stops.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Wait blocks until the watcher stopped.
func (w *Watcher) Wait() {
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.updates)
	defer w.watcher.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", zap.Error(err))
		case <-timer.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("config not reloaded", zap.Error(err))
				continue
			}
			w.log.Info("config reloaded")
			w.publish(cfg)
		}
	}
}

func (w *Watcher) publish(cfg *Config) {
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
}
