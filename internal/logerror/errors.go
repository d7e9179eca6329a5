// Package logerror defines the error types returned across the log bridge.
package logerror

import (
	"errors"
	"fmt"
)

// ErrContractViolation is matched by every error that reports a caller
// handing the bridge a key or value the native layer cannot carry.
var ErrContractViolation = errors.New("contract violation")

// KeyError reports a payload key that is not representable as native text.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid payload key %q: %s", e.Key, e.Reason)
}

// Is makes KeyError match ErrContractViolation.
func (e *KeyError) Is(target error) bool {
	return target == ErrContractViolation
}

// ValueError reports a payload value whose type is not one of string,
// integer, float or boolean, or a string the native layer cannot carry.
type ValueError struct {
	Key    string
	Type   string
	Reason string
}

func (e *ValueError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid value for payload key %q (%s): %s", e.Key, e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid value for payload key %q: %s is not a string, an integer, a float or a boolean", e.Key, e.Type)
}

// Is makes ValueError match ErrContractViolation.
func (e *ValueError) Is(target error) bool {
	return target == ErrContractViolation
}

// SinkError represents a failure to write an event to a sink
type SinkError struct {
	Sink string
	Op   string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %s failed: %v", e.Sink, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// RequestError represents a malformed log request read from an input stream,
// such as a replay file.
type RequestError struct {
	Line   int
	Field  string
	Reason string
	Err    error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("line %d: invalid %s: %s", e.Line, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
