// Package log configures structured logging for all windward binaries.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the process-wide default logger. Every record carries the
// service name, so the engine and API binaries stay distinguishable in a
// shared log stream.
func Setup(service, logLevel string) {
	slog.SetDefault(New(os.Stderr, service, logLevel))
}

// New builds a text logger at the given level. Unknown level names fall back
// to info.
func New(w io.Writer, service, logLevel string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	return slog.New(handler).With("service", service)
}

func parseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
