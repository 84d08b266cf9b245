package log

import "sync"

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// SetDefaultLogger sets the process-wide default logger. Components that
// are built without an explicit logger fall back to it.
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide default logger, initializing it
// lazily with the standard configuration when none was set.
func DefaultLogger() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = Default()
	}
	return defaultLogger
}
