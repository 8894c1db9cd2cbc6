// Package logger provides a logging capability for mintwell-server.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Initialize creates the process-wide logger. Structured JSON output goes to
// stderr so stdout stays clean for commands that print data. Safe to call
// more than once; only the first call takes effect.
func Initialize() {
	once.Do(func() {
		level := zapcore.InfoLevel
		if lvl, err := zapcore.ParseLevel(os.Getenv("MINTWELL_LOG_LEVEL")); err == nil {
			level = lvl
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
		log = zap.New(core, zap.AddCallerSkip(1)).Sugar()
	})
}

// ensure falls back to a default logger when Initialize was not called,
// which only happens in tests.
func ensure() *zap.SugaredLogger {
	if log == nil {
		Initialize()
	}
	return log
}

// With returns a logger with the given key-value pairs attached.
func With(args ...any) *zap.SugaredLogger {
	return ensure().With(args...)
}

// Debug logs a message at debug level.
func Debug(args ...any) { ensure().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { ensure().Debugf(format, args...) }

// Info logs a message at info level.
func Info(args ...any) { ensure().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { ensure().Infof(format, args...) }

// Warn logs a message at warn level.
func Warn(args ...any) { ensure().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { ensure().Warnf(format, args...) }

// Error logs a message at error level.
func Error(args ...any) { ensure().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { ensure().Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { ensure().Fatalf(format, args...) }

// Sync flushes any buffered log entries.
func Sync() error {
	return ensure().Sync()
}
