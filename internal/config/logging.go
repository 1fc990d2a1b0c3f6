package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a slog logger writing to w in the given format.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Logger opens the logger described by the config. Output goes to
// LogFile when set, otherwise to fallback; format falls back to
// defaultFormat. The returned close func releases the log file.
func (c *Config) Logger(fallback io.Writer, defaultFormat string) (*slog.Logger, func() error, error) {
	format := c.LogFormat
	if format == "" {
		format = defaultFormat
	}
	if c.LogFile == "" {
		return NewLogger(fallback, c.LogLevel, format), func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", c.LogFile, err)
	}
	return NewLogger(f, c.LogLevel, format), f.Close, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
