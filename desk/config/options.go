package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}

func WithUploadDir(dir string) Option {
	return func(c *Config) {
		c.Upload.Dir = dir
	}
}

func WithLoanPeriod(d time.Duration) Option {
	return func(c *Config) {
		c.Lending.LoanPeriod = d
	}
}
