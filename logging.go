package edrefis

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ZapLogger is the Logger used by the app, a thin layer over a sugared zap
// logger that adds a switchable debug level.
type ZapLogger struct {
	mu    sync.Mutex
	debug bool
	sugar *zap.SugaredLogger
}

// NewZapLogger names base after prefix. A nil base gets a development
// logger writing to stderr.
func NewZapLogger(base *zap.Logger, prefix string, debug bool) *ZapLogger {
	if base == nil {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.DisableStacktrace = true
		var err error
		base, err = config.Build()
		if err != nil {
			base = zap.NewNop()
		}
	}
	if prefix != "" {
		base = base.Named(prefix)
	}
	return &ZapLogger{
		debug: debug,
		sugar: base.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func (l *ZapLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *ZapLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *ZapLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *ZapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// LoggingModule installs a zap backed logger as a resource. Base is
// optional; the CLI passes its own so all output shares one sink.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Base   *zap.Logger
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewZapLogger(m.Base, m.Prefix, m.Debug))
}

type nopLogger struct{}

func NewNopLogger() Logger                          { return nopLogger{} }
func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(bool)                     {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	if l, ok := Resource[ZapLogger](app); ok {
		return l
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
