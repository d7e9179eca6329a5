// Package logging provides the logging abstraction the bridge uses for its own
// diagnostics. It is deliberately separate from the log events the bridge
// marshals: those travel through the native layer, these go to the operator.
package logging

// Logger defines the interface for structured logging throughout the application.
type Logger interface {
	// Debug logs a debug-level message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with optional fields
	Error(msg string, fields ...Field)

	// WithError returns a new logger with an error field attached
	WithError(err error) Logger

	// WithField returns a new logger with a single field attached
	WithField(key string, value interface{}) Logger

	// WithFields returns a new logger with multiple fields attached
	WithFields(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return discard{}
}

type discard struct{}

func (discard) Debug(string, ...Field)                 {}
func (discard) Info(string, ...Field)                  {}
func (discard) Warn(string, ...Field)                  {}
func (discard) Error(string, ...Field)                 {}
func (d discard) WithError(error) Logger               { return d }
func (d discard) WithField(string, interface{}) Logger { return d }
func (d discard) WithFields(...Field) Logger           { return d }
