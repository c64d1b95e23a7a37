package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the default text logger for the client. Components take a
// *slog.Logger through options so tests can inject their own.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// Verbose returns a text logger that also emits debug records, for the CLI's
// --verbose flag.
func Verbose() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Discard returns a logger that drops everything; handy default when a
// component is constructed without WithLogger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
