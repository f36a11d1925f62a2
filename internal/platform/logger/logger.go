package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns the service-wide structured logger. JSON output keeps log lines
// machine-parseable; level comes from VEIL_LOG_LEVEL (default info).
func New() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("VEIL_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
