package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger instance. It starts as a no-op so packages can
// log before Init runs (tests, migrations).
var Log = zap.NewNop()

// Init initializes the global logger
// isDevelopment: true for colorful console output, false for JSON structured logging
func Init(isDevelopment bool) error {
	var config zap.Config

	if isDevelopment {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	l, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return err
	}

	Log = l
	return nil
}

// Sync flushes any buffered log entries
// Should be called before application exits
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
