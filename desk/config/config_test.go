package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestOptions(t *testing.T) {
	var cfg Config
	for _, op := range []Option{
		WithLogLevel(zapcore.DebugLevel),
		WithWriteTimeout(time.Minute),
		WithUploadDir("/srv/desk/images"),
		WithLoanPeriod(7 * 24 * time.Hour),
	} {
		op(&cfg)
	}

	require.Equal(t, zapcore.DebugLevel, cfg.Log.LogLevel)
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	require.Equal(t, "/srv/desk/images", cfg.Upload.Dir)
	require.Equal(t, 7*24*time.Hour, cfg.Lending.LoanPeriod)
}
