// Package logging configures the slog logger shared by the daemon and the
// control client.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents the available logging levels
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

// ParseLevel converts a string to a Level
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be error, warn, info, or debug)", level)
	}
}

// slogLevel maps a Level onto the slog level scale. Unknown levels map to info.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Setup creates a text slog logger writing to stderr at the given level.
func Setup(level Level) *slog.Logger {
	return New(os.Stderr, level)
}

// New creates a text slog logger writing to w.
func New(w io.Writer, level Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return New(io.Discard, LevelError)
}
