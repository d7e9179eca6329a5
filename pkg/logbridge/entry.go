package logbridge

import (
	"strings"
	"sync"
	"unicode/utf8"

	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/pkg/native"
)

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64)
		return &b
	},
}

// entry is an open native entry together with the buffers backing the
// strings attached to it. The native side reads those buffers up to and
// during Complete, so they are only handed back to the pool by close.
type entry struct {
	lib    native.Library
	handle *native.Entry
	owned  []*[]byte
	closed bool
	stats  *counters
}

func openEntry(lib native.Library, stats *counters, level Level, ts native.Timestamp, domain, code string, loc *Location) *entry {
	e := &entry{lib: lib, stats: stats}
	var file native.CString
	var line uint32
	if loc != nil && loc.File != "" {
		file = e.own(loc.File)
		line = loc.Line
	}
	e.handle = lib.Start(level.Native(), ts, e.own(domain), e.own(code), file, line)
	stats.entriesOpened.Add(1)
	return e
}

// own copies s into a pooled NUL-terminated buffer owned by the entry.
func (e *entry) own(s string) native.CString {
	bp := bufferPool.Get().(*[]byte)
	b := append((*bp)[:0], s...)
	b = append(b, 0)
	*bp = b
	e.owned = append(e.owned, bp)
	e.stats.buffersOwned.Add(1)
	return native.CString(b)
}

// attach validates key and v and hands them to the native entry. Nothing is
// attached when validation fails.
func (e *entry) attach(key string, v Value) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if v == nil {
		return &logerror.ValueError{Key: key, Type: "nil"}
	}

	switch x := v.(type) {
	case String:
		if err := checkText(string(x)); err != "" {
			return &logerror.ValueError{Key: key, Type: KindString.String(), Reason: err}
		}
		e.lib.Attach(e.handle, e.own(key), native.PayloadTypeString, native.PayloadValue{AsString: e.own(string(x))})
	case Integer:
		e.lib.Attach(e.handle, e.own(key), native.PayloadTypeInteger, native.PayloadValue{AsInteger: int64(x)})
	case Float:
		e.lib.Attach(e.handle, e.own(key), native.PayloadTypeFloat, native.PayloadValue{AsFloat: float64(x)})
	case Boolean:
		var b int32
		if x {
			b = 1
		}
		e.lib.Attach(e.handle, e.own(key), native.PayloadTypeBoolean, native.PayloadValue{AsBoolean: b})
	default:
		return &logerror.ValueError{Key: key, Type: v.Kind().String()}
	}
	return nil
}

// close completes the native entry, then releases every owned buffer. It is
// safe to call more than once; only the first call reaches the native side.
func (e *entry) close() int {
	if e.closed {
		return 0
	}
	e.closed = true

	result := e.lib.Complete(e.handle)
	e.stats.entriesCompleted.Add(1)

	for _, bp := range e.owned {
		clear(*bp)
		*bp = (*bp)[:0]
		bufferPool.Put(bp)
		e.stats.buffersReleased.Add(1)
	}
	e.owned = nil
	e.handle = nil
	return result
}

func checkKey(key string) error {
	if reason := checkText(key); reason != "" {
		return &logerror.KeyError{Key: key, Reason: reason}
	}
	return nil
}

// checkText returns why s cannot travel as a native C string, or "".
func checkText(s string) string {
	if !utf8.ValidString(s) {
		return "not valid UTF-8 text"
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "contains a NUL byte"
	}
	return ""
}
