package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New creates a *slog.Logger writing to stderr and optionally to logFile.
// format "text" selects a colored console handler; anything else writes JSON.
// The log file always receives JSON so it stays machine-readable.
// It also sets the logger as the slog default so package-level slog calls work.
// The returned cleanup func closes the log file if one was opened; callers must
// defer it.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	lvl := parseLevel(level)

	var console slog.Handler
	if format == "text" {
		console = tint.NewHandler(os.Stderr, &tint.Options{Level: lvl, TimeFormat: time.DateTime})
	} else {
		console = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}

	cleanup := func() {}
	handler := console

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = f.Close() }
		handler = slog.NewMultiHandler(console, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl}))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// Discard returns a logger that drops everything. Used by tests and the CLI
// when quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch s {
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
