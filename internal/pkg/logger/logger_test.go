package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		ok   bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestZapAdapter_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Named(NewZapAdapter(zap.New(core)), "store")

	l.Info("holding updated", "id", "bitcoin", "amount", 0.5)
	l.Warn("persist failed", "error", "disk full")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "holding updated", entry.Message)
	assert.Equal(t, "store", entry.LoggerName)
	assert.Equal(t, "bitcoin", entry.ContextMap()["id"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestNew(t *testing.T) {
	zl, err := New("debug")
	require.NoError(t, err)
	assert.True(t, zl.Core().Enabled(zapcore.DebugLevel))
}
