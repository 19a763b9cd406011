package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a slog.Logger writing to w at cfg.LogLevel.
// Production uses JSON handler; otherwise text handler.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
