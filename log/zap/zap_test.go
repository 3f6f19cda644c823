package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unkn0wn-root/writebehind"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("consumer started", writebehind.Fields{"queue": "writes"})
	l.Warn("queue full", writebehind.Fields{"queue": "evictions", "key": "ROLE:1"})
	l.Error("store SET failed", writebehind.Fields{"key": "GUILD:1", "err": errors.New("boom")})
	l.Info("no fields", nil)

	entries := logs.All()
	require.Len(t, entries, 4)

	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "writebehind", entries[0].LoggerName)
	require.Equal(t, "writes", entries[0].ContextMap()["queue"])

	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "ROLE:1", entries[1].ContextMap()["key"])

	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "boom", entries[2].ContextMap()["err"])

	require.Empty(t, entries[3].Context)
}
