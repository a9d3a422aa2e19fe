package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/diffbot/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_Overrides(t *testing.T) {
	ctx := context.Background()

	logger, closer, err := New(config.LoggingConfig{Level: "warn"}, true, false)
	require.NoError(t, err)
	defer closer.Close()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger, _, err = New(config.LoggingConfig{Level: "debug"}, true, true)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))

	_, _, err = New(config.LoggingConfig{Level: "nope"}, false, false)
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diffbot.log")
	logger, closer, err := New(config.LoggingConfig{Level: "info", File: path}, false, false)
	require.NoError(t, err)

	logger.Info("job started", "job", "j1")
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "job=j1")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, slog.LevelInfo).Info("hello", "n", 1)
	assert.Contains(t, buf.String(), "msg=hello n=1")
}
