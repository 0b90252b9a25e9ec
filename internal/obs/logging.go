// Package obs holds observability helpers: structured logging and metrics.
package obs

import (
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger every binary writes to stdout.
func NewLogger(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With("service", service)
}
