// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"
)

// Logger is the default structured logger for the application, writing JSON
// to stdout.
var Logger *slog.Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	Logger = slog.New(handler)
}
