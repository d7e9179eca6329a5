package logbridge

import "time"

// Location is the source position a log entry was written from.
type Location struct {
	File string
	Line uint32
}

// Event is a decoded native log event as handed to a Handler.
type Event struct {
	Level     Level
	Timestamp time.Time
	Domain    string
	Code      string
	Payload   *Payload
	// Source is nil when the native side sent no file.
	Source *Location
}

// File returns the source file, or "" when absent.
func (e Event) File() string {
	if e.Source == nil {
		return ""
	}
	return e.Source.File
}

// Line returns the source line, or 0 when no file was sent.
func (e Event) Line() uint32 {
	if e.Source == nil {
		return 0
	}
	return e.Source.Line
}

// Handler receives decoded native log events. HandleLog reports whether the
// event was handled.
//
// Handlers run synchronously on whichever goroutine or native thread emitted
// the event.
type Handler interface {
	HandleLog(Event) bool
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event) bool

// HandleLog calls f(e).
func (f HandlerFunc) HandleLog(e Event) bool {
	return f(e)
}
