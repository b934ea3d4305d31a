package log

import (
	"context"
	"errors"
	"testing"

	contextx "github.com/blueplan/recipebot/internal/recipebot/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewFromZap(zap.New(core)), logs
}

func TestContextFields(t *testing.T) {
	logger, logs := observed(zapcore.DebugLevel)

	ctx := contextx.WithRequireID(context.Background(), "req-1")
	ctx = contextx.WithUserID(ctx, "42")
	logger.Info(ctx, "message handled", KV("command", "popular"), KV("error", errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "message handled", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "42", fields["user_id"])
	assert.Equal(t, "popular", fields["command"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := observed(zapcore.WarnLevel)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestWith(t *testing.T) {
	logger, logs := observed(zapcore.InfoLevel)
	logger.With(KV("component", "router")).Info(context.Background(), "hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "router", logs.All()[0].ContextMap()["component"])
}

func TestNilAndNop(t *testing.T) {
	var nilLogger *Logger
	nilLogger.Info(context.Background(), "ignored")
	assert.NoError(t, nilLogger.Sync())

	NewNop().Error(context.Background(), "ignored")
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"", "DEBUG", "info", "Warn", "ERROR"} {
		_, err := NewLogger(level)
		assert.NoError(t, err, level)
	}
	_, err := NewLogger("loud")
	assert.Error(t, err)
}
