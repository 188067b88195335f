package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/serroba/fuselink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := messaging.NewLoggerAdapter(zap.New(core))

	adapter.With(watermill.LogFields{"topic": "link.erased"}).
		Error("subscribe failed", errors.New("boom"), watermill.LogFields{"attempt": 2})
	adapter.Info("started", nil)
	adapter.Trace("tick", watermill.LogFields{"n": 1})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "watermill", entries[0].LoggerName)
	assert.Equal(t, "link.erased", entries[0].ContextMap()["topic"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["attempt"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}
