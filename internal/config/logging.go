package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the veilmark logger: human-readable text on stderr for
// interactive use, JSON appended to the batch log file for later inspection
// of runs. The returned cleanup closes the file.
func NewLogger(path string, level slog.Level) (*slog.Logger, func() error) {
	terminal := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("batch log file unavailable, logging to stderr only", "path", path, "error", err)
		return slog.New(terminal), func() error { return nil }
	}

	logger := slog.New(slogmulti.Fanout(
		terminal,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
	return logger, file.Close
}

// newLoggerTo builds the same text+JSON fanout over arbitrary writers.
func newLoggerTo(terminal, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(terminal, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}
