package main

import (
	"io"
	"log/slog"

	"github.com/vango-dev/dippy/internal/config"
)

// loadConfig reads the file at path, or the working directory's config
// file, or falls back to defaults with environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	return config.FromEnv()
}

// newLogger builds the process logger from cfg.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
