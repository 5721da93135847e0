package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/config"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
)

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	buf := &logger.TestLogBuffer{}
	l := logger.SetupWithWriter(config.ServerConfig{LogLevel: "WARN"}, buf)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("shown", "template_id", "abc")
	slog.Error("via default")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	logger.AssertLogField(t, buf, "template_id", "abc")
	logger.AssertLogContains(t, buf, "via default")
}

func TestSetup_ReturnsLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	l, err := logger.Setup(config.ServerConfig{LogLevel: "info"})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Same(t, l, slog.Default())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tc := range tests {
		level, ok := logger.ParseLevel(tc.in)
		assert.Equal(t, tc.level, level, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback, _ := logger.GetTestLogger(t)
	stored, buf := logger.GetTestLogger(t)

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))

	ctx := logger.WithLogger(context.Background(), stored)
	got := logger.FromContextOrDefault(ctx, fallback)
	assert.Same(t, stored, got)

	logger.FromContext(ctx).Info("from context", "run_id", "r1")
	logger.AssertLogField(t, buf, "run_id", "r1")
}

func TestFromContext_DefaultsToSlogDefault(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, logger.FromContext(context.Background()))
	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
}
