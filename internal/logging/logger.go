package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a slog logger configured at the provided level: JSON output
// for deployed environments, human-readable text for local development. If
// the level string is invalid it defaults to info.
func New(level, appEnv string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	var handler slog.Handler
	switch strings.ToLower(appEnv) {
	case "dev", "development", "local":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(handler)
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
