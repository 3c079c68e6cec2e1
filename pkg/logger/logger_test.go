package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Sink(t *testing.T) {
	t.Parallel()
	sink := filepath.Join(t.TempDir(), "desk.log")

	log := NewLogger(Log{LogLevel: zapcore.InfoLevel, Sink: sink}, "desk")
	log.Info("book borrowed")
	_ = log.Sync()

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"book borrowed"`)
	require.Contains(t, string(data), `"logger":"desk"`)
}

func TestNewLogger_SinkUnavailable(t *testing.T) {
	t.Parallel()
	sink := filepath.Join(t.TempDir(), "missing", "desk.log")

	log := NewLogger(Log{LogLevel: zapcore.InfoLevel, Sink: sink}, "desk")
	require.NotNil(t, log)
	log.Info("still logging")

	_, err := os.Stat(sink)
	require.True(t, os.IsNotExist(err))
}
