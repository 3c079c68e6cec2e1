package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	// Sink is an optional file path; logs always go to stdout as well.
	Sink string `yaml:"sink" envconfig:"LOG_SINK"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	level := zap.NewAtomicLevelAt(cfg.LogLevel)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
	var sinkErr error
	if cfg.Sink != "" {
		f, err := os.OpenFile(cfg.Sink, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			sinkErr = err
		} else {
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), level))
		}
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(name)
	if sinkErr != nil {
		log.Warn("open log sink, logging to stdout only", zap.String("sink", cfg.Sink), zap.Error(sinkErr))
	}
	return log
}
