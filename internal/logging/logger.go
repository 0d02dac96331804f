// Package logging wires slog: JSON to stdout, fan-out to the Postgres batch
// handler, and the retention sweeper for stored log rows.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Level reads LOG_LEVEL from the environment. Unset or unrecognized values
// fall back to info.
func Level() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

// StdoutHandler builds the JSON stdout handler at the configured level, with
// the service name stamped on every record.
func StdoutHandler() slog.Handler {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: Level()})
	return handler.WithAttrs([]slog.Attr{slog.String("service", "auth-service")})
}

// Setup installs the stdout handler as the process default. main swaps in a
// MultiHandler once the database connection is up.
func Setup() {
	slog.SetDefault(slog.New(StdoutHandler()))
}
