// Package native describes the FreeLAN native logging ABI: severity codes,
// payload type tags, the tagged payload struct and the entry lifecycle
// functions a binding calls into.
//
// C strings are modelled as NUL-terminated byte slices. A nil CString is the
// NULL pointer. The native side keeps references to the slices it is handed,
// so callers must keep them alive until the entry that references them has
// been completed.
package native

import "bytes"

// Level is a native severity code. Higher codes are more severe.
type Level uint32

// Severity codes understood by the native logger.
const (
	LevelTrace       Level = 10
	LevelDebug       Level = 20
	LevelInformation Level = 30
	LevelImportant   Level = 40
	LevelWarning     Level = 50
	LevelError       Level = 60
	LevelFatal       Level = 70
)

// Timestamp is a UTC point in time expressed as seconds since the epoch.
type Timestamp float64

// PayloadType tags the active member of a PayloadValue.
type PayloadType uint32

// Payload type tags.
const (
	PayloadTypeNull PayloadType = iota
	PayloadTypeString
	PayloadTypeInteger
	PayloadTypeFloat
	PayloadTypeBoolean
)

// CString is a NUL-terminated byte string. nil stands for NULL.
type CString []byte

// NewCString copies s into a freshly allocated NUL-terminated buffer.
func NewCString(s string) CString {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// IsNull reports whether s is the NULL pointer.
func (s CString) IsNull() bool {
	return s == nil
}

// Bytes returns the bytes of s up to, not including, the first NUL. A buffer
// missing its terminator is read to its end.
func (s CString) Bytes() []byte {
	if i := bytes.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}

// PayloadValue is the value union of a payload. Only the member selected by
// the payload's type tag is meaningful.
type PayloadValue struct {
	AsString  CString
	AsInteger int64
	AsFloat   float64
	AsBoolean int32
}

// Payload is a single key/value pair attached to a log entry.
type Payload struct {
	Key   CString
	Type  PayloadType
	Value PayloadValue
}

// Callback is the signature the native logger invokes for every dispatched
// log event. A non-zero return means the event was handled.
type Callback func(level Level, timestamp Timestamp, domain, code CString, payloadCount uint, payloads []Payload, file CString, line uint32) int

// Library is the set of native logging functions a binding uses.
type Library interface {
	// Log writes a complete entry in a single call.
	Log(level Level, timestamp Timestamp, domain, code CString, payloadCount uint, payloads []Payload, file CString, line uint32) int
	// Start opens an entry that payloads can be attached to.
	Start(level Level, timestamp Timestamp, domain, code, file CString, line uint32) *Entry
	// Attach adds a payload to an open entry.
	Attach(entry *Entry, key CString, typ PayloadType, value PayloadValue)
	// Complete dispatches an open entry and releases it.
	Complete(entry *Entry) int
	// SetLoggingCallback installs cb. A nil cb disables dispatch.
	SetLoggingCallback(cb Callback)
	// SetLogLevel sets the minimum severity that is dispatched.
	SetLogLevel(level Level)
	// LogLevel returns the minimum severity that is dispatched.
	LogLevel() Level
}
