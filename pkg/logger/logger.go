// Package logger provides centralized logging functionality for the chunking
// module. It follows Uber Go Style Guide conventions for error handling and
// naming.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// instance holds the global logger instance.
// Using unexported variable to control access through methods.
var instance *zap.Logger

// InitError represents logger initialization errors.
type InitError struct {
	Op  string // the operation that failed
	Err error  // the underlying error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("logger: %s failed: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Init initializes the global logger with a production-style JSON encoder.
// It returns an InitError if logger creation fails.
func Init() error {
	l, err := zap.NewProduction()
	if err != nil {
		return &InitError{Op: "NewProduction", Err: err}
	}
	instance = l
	return nil
}

// InitWithLogger installs a caller-provided logger as the global instance.
// Useful in tests or when the host application already owns a zap.Logger.
func InitWithLogger(l *zap.Logger) {
	instance = l
}

// Get returns the global logger instance.
// It creates a default no-op-safe logger if none exists, following a
// fail-safe pattern: a library must never panic just because its host
// forgot to call Init.
func Get() *zap.Logger {
	if instance == nil {
		if err := Init(); err != nil {
			instance = zap.NewNop()
		}
	}
	return instance
}

// MustGet returns the global logger instance or panics if not initialized.
// Use this only when logger initialization failure should terminate the program.
func MustGet() *zap.Logger {
	if instance == nil {
		panic("logger: not initialized, call Init() first")
	}
	return instance
}

// Sync flushes any buffered log entries. It's safe to call multiple times and
// handles a nil logger gracefully.
func Sync() error {
	if instance == nil {
		return nil
	}
	return instance.Sync()
}

// IsInitialized reports whether the logger has been initialized.
func IsInitialized() bool {
	return instance != nil
}
