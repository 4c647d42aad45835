package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mintslip-workers/internal/common/config"
)

func TestZapAdapter_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	tagged := log.WithFields(map[string]interface{}{"taskType": "render-document"})
	tagged.Info("processing job", map[string]interface{}{"jobKey": int64(42)})
	tagged.WithError(errors.New("boom")).Error("job failed", nil)
	log.Debug("debug line", nil)
	log.Warn("warn line", map[string]interface{}{"cause": errors.New("timeout")})

	require.Equal(t, 4, logs.Len())

	entries := logs.All()
	assert.Equal(t, "processing job", entries[0].Message)
	assert.Equal(t, "render-document", entries[0].ContextMap()["taskType"])
	assert.Equal(t, int64(42), entries[0].ContextMap()["jobKey"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, "timeout", entries[3].ContextMap()["cause"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestFromConfig(t *testing.T) {
	l := FromConfig(config.LoggingConfig{Level: "warn", Format: "json", Output: "stderr"})
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().With(map[string]interface{}{"a": 1}).Info("discarded", nil)
	NewTestLogger(t).Info("visible in -v output", map[string]interface{}{"ok": true})
}
