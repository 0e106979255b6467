// Package logging configures the structured logger shared by the engine and
// the command line tool.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Config controls logger construction.
type Config struct {
	Level   slog.Level
	Output  io.Writer
	Enabled bool
	// JSON selects the JSON handler instead of key=value text.
	JSON bool
}

// DefaultConfig logs Info and above as text on stderr.
func DefaultConfig() Config {
	return Config{
		Level:   slog.LevelInfo,
		Output:  os.Stderr,
		Enabled: true,
	}
}

// Logger is a slog.Logger scoped to this module.
type Logger struct {
	*slog.Logger
}

// New builds a logger. A disabled config yields a logger that drops
// everything.
func New(cfg Config) *Logger {
	if !cfg.Enabled {
		return Discard()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// Discard returns a logger with no output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// For returns a child logger tagged with a component attribute.
func (l *Logger) For(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

var global atomic.Pointer[Logger]

// Global returns the process-wide logger, creating it with DefaultConfig on
// first use.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, New(DefaultConfig()))
	return global.Load()
}

// SetGlobal replaces the process-wide logger and routes the slog default
// through it, so packages that log via slog directly follow the same level.
func SetGlobal(l *Logger) {
	global.Store(l)
	slog.SetDefault(l.Logger)
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging: unknown level %q", s)
}

// Debug logs at debug level on the global logger.
func Debug(msg string, args ...any) { Global().Debug(msg, args...) }

// Info logs at info level on the global logger.
func Info(msg string, args ...any) { Global().Info(msg, args...) }

// Warn logs at warn level on the global logger.
func Warn(msg string, args ...any) { Global().Warn(msg, args...) }

// Error logs at error level on the global logger.
func Error(msg string, args ...any) { Global().Error(msg, args...) }
