// Package logging builds the structured logger shared by the server and CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// New returns an slog logger rendered by pterm. level is one of trace, debug,
// info, warn or error; format "json" switches to JSON lines.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	logger := pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(parseLevel(level))
	if strings.EqualFold(format, "json") {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return slog.New(pterm.NewSlogHandler(logger))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return NewWithWriter(io.Discard, "error", "text")
}

func parseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}
