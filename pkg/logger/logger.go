package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds logger configuration.
type Config struct {
	Level  string       `yaml:"level" env:"LOG_LEVEL"`
	Format string       `yaml:"format" env:"LOG_FORMAT"`
	Sentry SentryConfig `yaml:"sentry"`
}

// New creates a logger writing to w. A nil writer means stderr.
// Invalid levels fall back to info, unknown formats to text.
func New(w io.Writer, cfg Config) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if strings.EqualFold(cfg.Format, FormatJSON) {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	if sh := newSentryHandler(cfg.Sentry, base); sh != nil {
		base = newFanoutHandler(base, sh)
	}

	return slog.New(newContextHandler(base))
}

// ParseLevel converts a level name (debug, info, warn, error) into slog.Level.
// An empty string yields info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logger: invalid level %q: %w", s, err)
	}
	return level, nil
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
