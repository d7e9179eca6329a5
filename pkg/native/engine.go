package native

import (
	"sync"
	"sync/atomic"
)

// Entry is an open native log entry created by Start.
type Entry struct {
	mu        sync.Mutex
	level     Level
	timestamp Timestamp
	domain    CString
	code      CString
	file      CString
	line      uint32
	payloads  []Payload
	released  bool
}

// Len returns the number of payloads attached so far.
func (e *Entry) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.payloads)
}

// Released reports whether the entry has been completed.
func (e *Entry) Released() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}

// Engine is an in-process implementation of Library. It filters by severity
// and dispatches synchronously to the registered callback on the caller's
// goroutine.
type Engine struct {
	callback atomic.Pointer[Callback]
	level    atomic.Uint32
}

var _ Library = (*Engine)(nil)

// NewEngine returns an engine with no callback that dispatches information
// and above.
func NewEngine() *Engine {
	e := &Engine{}
	e.level.Store(uint32(LevelInformation))
	return e
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide engine.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine()
	})
	return defaultEngine
}

// SetLoggingCallback implements Library.
func (e *Engine) SetLoggingCallback(cb Callback) {
	if cb == nil {
		e.callback.Store(nil)
		return
	}
	e.callback.Store(&cb)
}

// SetLogLevel implements Library.
func (e *Engine) SetLogLevel(level Level) {
	e.level.Store(uint32(level))
}

// LogLevel implements Library.
func (e *Engine) LogLevel() Level {
	return Level(e.level.Load())
}

// CallbackActive reports whether a callback is registered.
func (e *Engine) CallbackActive() bool {
	return e.callback.Load() != nil
}

// Log implements Library.
func (e *Engine) Log(level Level, timestamp Timestamp, domain, code CString, payloadCount uint, payloads []Payload, file CString, line uint32) int {
	cb := e.dispatcher(level)
	if cb == nil {
		return 0
	}
	if file.IsNull() {
		line = 0
	}
	return cb(level, timestamp, domain, code, payloadCount, payloads, file, line)
}

// Start implements Library. The returned entry must always be completed,
// even when nothing will be dispatched.
func (e *Engine) Start(level Level, timestamp Timestamp, domain, code, file CString, line uint32) *Entry {
	if file.IsNull() {
		line = 0
	}
	return &Entry{
		level:     level,
		timestamp: timestamp,
		domain:    domain,
		code:      code,
		file:      file,
		line:      line,
	}
}

// Attach implements Library. Attaching to a nil or released entry does
// nothing.
func (e *Engine) Attach(entry *Entry, key CString, typ PayloadType, value PayloadValue) {
	if entry == nil {
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.released {
		return
	}
	entry.payloads = append(entry.payloads, Payload{Key: key, Type: typ, Value: value})
}

// Complete implements Library. The entry's buffers are read during the
// callback, then the entry drops every reference it holds.
func (e *Engine) Complete(entry *Entry) int {
	if entry == nil {
		return 0
	}
	entry.mu.Lock()
	if entry.released {
		entry.mu.Unlock()
		return 0
	}
	entry.released = true
	level, timestamp, line := entry.level, entry.timestamp, entry.line
	domain, code, file := entry.domain, entry.code, entry.file
	payloads := entry.payloads
	entry.domain, entry.code, entry.file = nil, nil, nil
	entry.payloads = nil
	entry.mu.Unlock()

	result := 0
	if cb := e.dispatcher(level); cb != nil {
		result = cb(level, timestamp, domain, code, uint(len(payloads)), payloads, file, line)
	}
	return result
}

// dispatcher returns the callback when an event at level would be dispatched.
func (e *Engine) dispatcher(level Level) Callback {
	cb := e.callback.Load()
	if cb == nil || level < e.LogLevel() {
		return nil
	}
	return *cb
}
