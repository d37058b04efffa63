package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output keeps the
// transition log machine-parseable alongside the audit trail.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
