package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonclassgen/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" error ", slog.LevelError},
		{"warn", slog.LevelWarn},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_WritesToFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(config.LogConfig{Level: "info"}, &buf)
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	logger.Debug("hidden")
	logger.Info("inferred graph", "roots", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="inferred graph" roots=1`)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jsonclassgen.log")

	var buf bytes.Buffer
	logger, cleanup, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}, &buf)
	require.NoError(t, err)

	logger.Debug("parsed documents", "count", 3)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="parsed documents" count=3`)
	assert.Empty(t, buf.String())
}

func TestSetup_InstallsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "run.log")
	cleanup, err := Setup(config.LogConfig{Level: "error", File: path})
	require.NoError(t, err)

	slog.Warn("below threshold")
	slog.Error("writer failed", "language", "go")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below threshold")
	assert.Contains(t, string(data), "language=go")
}
