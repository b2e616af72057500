// Package logger configures the process-wide zap logger and carries
// request-scoped loggers through a context.Context.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Environment string
	ServiceName string
}

type contextKey string

const loggerKey contextKey = "logger"

var log = zap.NewNop()

// Init builds the global logger. Production gets JSON output with ISO8601
// timestamps; everything else gets the colored development encoder.
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)

	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build(zap.Fields(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	))
	if err != nil {
		return err
	}

	Set(l)
	return nil
}

// Set replaces the global logger. Tests use it to install zaptest loggers.
func Set(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
}

// L returns the global logger.
func L() *zap.Logger {
	return log
}

// Sync flushes buffered log entries.
func Sync() {
	_ = log.Sync()
}

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return log
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
