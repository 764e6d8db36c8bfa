// Package weatherlog constructs the application's slog.Logger: plain
// text at debug level for local development, structured JSON at info
// level in production.
package weatherlog

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger writing to w (os.Stdout in production), picking
// its handler shape based on devMode.
func New(w io.Writer, devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// NewDefault writes to os.Stdout.
func NewDefault(devMode bool) *slog.Logger {
	return New(os.Stdout, devMode)
}
