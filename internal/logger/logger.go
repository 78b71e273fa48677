package logger

import (
	"sync"
)

// Log levels accepted by configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output formats accepted by configuration.
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Init builds the process logger. Only the first call has any effect; later
// calls return the instance created by the first one.
func Init(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}

// Get returns the process logger, initializing it at info level if Init was
// never called.
func Get() *Logger {
	return Init(InfoLevel, ConsoleFormat)
}
