package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. InitLogger must run before anything
// else uses it; until then it is a nop logger so early failures don't
// panic.
var Log = zap.NewNop()

// InitLogger builds the shared zap logger. ENV=local switches to the
// human-readable development config.
func InitLogger(service string) (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(
		zap.Fields(
			zap.String("service", service),
			zap.String("env", env),
		),
	)
	if err != nil {
		return nil, err
	}
	Log = l
	return l, nil
}
