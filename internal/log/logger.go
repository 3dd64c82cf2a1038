// Package log wraps slog with a component-tagged logger so every line
// can be traced back to the subsystem that wrote it.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger permanently tagged with a component name.
// The tag is attached once in WithComponent, so the standard slog
// methods can be used directly.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger construction options.
type Config struct {
	Level   slog.Level
	Handler slog.Handler
}

// DefaultConfig logs human-readable lines to stderr at Info level.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo}
}

// New creates a logger from the configuration. A nil Handler gets a
// text handler on stderr at the configured level.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: ComponentApp,
	}
}

// With returns a logger carrying the given attributes on every line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger whose lines are tagged with the
// component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Component returns the component this logger is tagged with.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes the standard library's default slog output through
// this logger.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
