// Package obs contains observability utilities such as logging and tracing.
package obs

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the global structured logger used by the service and clients.
//
// Logger is exported to allow other packages to use it for logging. It starts
// as a discard logger so packages stay usable before InitLogger runs.
var Logger = slog.New(slog.DiscardHandler)

// InitLogger initializes the global Logger with a JSON handler at the given
// level (debug, info, warn, error). Unknown levels fall back to info.
func InitLogger(level string) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)})
	Logger = slog.New(h)
}

// ParseLevel maps a level name onto slog's levels.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
