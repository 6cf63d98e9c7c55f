package common

import (
	"log/slog"
	"os"
)

// SetupLogger installs the global logger. Format "json" emits structured
// JSON; anything else falls back to the console handler. All logging goes to
// stderr so command output stays pipeable.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
