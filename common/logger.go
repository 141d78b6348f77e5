package common

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger. Accessed atomically so SetLogger can be called
// concurrently with logging from the render and tick goroutines.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger shared by every engine package.
// By default the engine produces no log output. Passing nil restores the silent default.
//
// Log levels used by the engine:
//   - zap.DebugLevel: per-pass timings, resource allocation details
//   - zap.InfoLevel: lifecycle events (backend selected, pipeline assembled, profiler stats)
//   - zap.WarnLevel: recoverable issues (toggle file reload failures, unknown toggle names)
//   - zap.ErrorLevel: failed frames, ordering violations
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger. Safe for concurrent use.
//
// Returns:
//   - *zap.Logger: the active logger
func Logger() *zap.Logger {
	return loggerPtr.Load()
}

// NewLogger builds a console logger writing to stderr.
//
// Parameters:
//   - verbose: log at debug level instead of info
//
// Returns:
//   - *zap.Logger: the logger
//   - error: when the zap configuration fails to build
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	return cfg.Build()
}
