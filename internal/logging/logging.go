// Package logging configures the process-wide slog logger, optionally
// writing to a rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/errors"
)

// Setup installs a text logger built from cfg as the slog default.
// Diagnostics go to stderr unless cfg.File is set. The returned cleanup
// closes the log file and must be called before exit.
func Setup(cfg config.LogConfig) (func() error, error) {
	logger, cleanup, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// New builds a logger from cfg writing to fallback when no file is set.
func New(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var writer io.Writer
	var cleanup func() error

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, errors.NewConfigError("failed to create log directory", err)
		}

		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		writer = lj
		cleanup = lj.Close
	} else {
		writer = fallback
		cleanup = func() error { return nil }
	}

	return slog.New(slog.NewTextHandler(writer, opts)), cleanup, nil
}

// ParseLevel maps a level name to a slog level. Unknown names give warn,
// which keeps generated output on stdout free of chatter.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
