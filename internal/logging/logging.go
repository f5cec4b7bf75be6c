// Package logging provides the structured logger for storycut. Log output is
// line-delimited JSON on stderr so stdout stays free for document output.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a JSON logger at the given level. Supported levels: debug,
// info, warn, error; anything else falls back to info.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	return slog.New(handler)
}

// WithClip returns a logger scoped to one input clip.
func WithClip(logger *slog.Logger, filename string) *slog.Logger {
	return logger.With("clip", filename)
}

// WithComponent returns a logger scoped to a pipeline component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
