package common

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/bnpl-tracker/internal/core/sanitize"
)

// NewLogger builds the process logger. Every message and string attribute
// passes through the PII sanitizer before reaching w.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := sanitize.Options(&slog.HandlerOptions{Level: ParseLevel(cfg.Level)})

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

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
