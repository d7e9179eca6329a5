// Package logbridge marshals structured log calls into the native FreeLAN
// logging ABI and decodes native log callbacks back into structured events.
//
// A Bridge owns the handler slot for one native library. Emit sends entries
// down; the native library calls Bridge.Callback for every dispatched entry,
// which decodes it and invokes the installed Handler.
package logbridge

import (
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/native"
)

// ErrContractViolation is matched by every error Emit returns for a key or
// value the native layer cannot carry.
var ErrContractViolation = logerror.ErrContractViolation

type (
	// KeyError reports an invalid payload key.
	KeyError = logerror.KeyError
	// ValueError reports an invalid payload value.
	ValueError = logerror.ValueError
)

// Stats counts entry and buffer lifecycle events since the bridge was
// created.
type Stats struct {
	EntriesOpened    uint64
	EntriesCompleted uint64
	BuffersOwned     uint64
	BuffersReleased  uint64
	CallbackPanics   uint64
}

type counters struct {
	entriesOpened    atomic.Uint64
	entriesCompleted atomic.Uint64
	buffersOwned     atomic.Uint64
	buffersReleased  atomic.Uint64
	callbackPanics   atomic.Uint64
}

type handlerSlot struct {
	handler Handler
}

// Bridge connects structured log calls and a native logging library.
type Bridge struct {
	lib     native.Library
	logger  logging.Logger
	handler atomic.Pointer[handlerSlot]
	stats   counters
}

// NewBridge creates a bridge over lib. The logger receives the bridge's own
// diagnostics; nil discards them. No handler is installed.
func NewBridge(lib native.Library, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bridge{lib: lib, logger: logger}
}

// Library returns the native library the bridge drives.
func (b *Bridge) Library() native.Library {
	return b.lib
}

// Stats returns a snapshot of the lifecycle counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		EntriesOpened:    b.stats.entriesOpened.Load(),
		EntriesCompleted: b.stats.entriesCompleted.Load(),
		BuffersOwned:     b.stats.buffersOwned.Load(),
		BuffersReleased:  b.stats.buffersReleased.Load(),
		CallbackPanics:   b.stats.callbackPanics.Load(),
	}
}

// SetHandler installs h as the receiver of native log events, replacing any
// previous handler. A nil h uninstalls the handler and clears the native
// callback so the native side can skip building events. Concurrent calls
// race; the last one wins.
func (b *Bridge) SetHandler(h Handler) {
	if f, ok := h.(HandlerFunc); ok && f == nil {
		h = nil
	}
	if h == nil {
		b.handler.Store(nil)
		b.lib.SetLoggingCallback(nil)
		return
	}
	b.handler.Store(&handlerSlot{handler: h})
	b.lib.SetLoggingCallback(b.Callback)
}

// Handler returns the installed handler, or nil.
func (b *Bridge) Handler() Handler {
	if slot := b.handler.Load(); slot != nil {
		return slot.handler
	}
	return nil
}

// Emit writes a log entry. A nil loc, or one with an empty file, means no
// source location and forces the line to 0.
//
// Emit reports whether the native layer handled the entry. false is not an
// error: it also means no callback was installed or the level was filtered.
// A non-nil error reports a key or value the native layer cannot carry;
// attaching stops at that pair, but pairs attached before it are still sent.
func (b *Bridge) Emit(level Level, ts time.Time, domain, code string, payload *Payload, loc *Location) (bool, error) {
	pairs := payload.Pairs()
	return b.emit(level, ts, domain, code, len(pairs), func(i int) (string, Value, error) {
		return pairs[i].Key, pairs[i].Value, nil
	}, loc)
}

// EmitFields is Emit for dynamically typed values. Keys are sent in sorted
// order and every value goes through ValueOf; a value of an unsupported type
// stops attaching at that key.
func (b *Bridge) EmitFields(level Level, ts time.Time, domain, code string, fields map[string]any, loc *Location) (bool, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return b.emit(level, ts, domain, code, len(keys), func(i int) (string, Value, error) {
		v, err := ValueOf(keys[i], fields[keys[i]])
		return keys[i], v, err
	}, loc)
}

func (b *Bridge) emit(level Level, ts time.Time, domain, code string, n int, pair func(int) (string, Value, error), loc *Location) (bool, error) {
	nts := ToNativeTimestamp(ts)

	if n == 0 {
		var file native.CString
		var line uint32
		if loc != nil && loc.File != "" {
			file = native.NewCString(loc.File)
			line = loc.Line
		}
		return b.lib.Log(level.Native(), nts, native.NewCString(domain), native.NewCString(code), 0, nil, file, line) != 0, nil
	}

	e := openEntry(b.lib, &b.stats, level, nts, domain, code, loc)
	var attachErr error
	defer func() {
		if attachErr != nil {
			b.logger.WithError(attachErr).Debug("Payload attach aborted",
				logging.Field{Key: logging.FieldDomain, Value: domain},
				logging.Field{Key: logging.FieldCode, Value: code})
		}
	}()
	defer e.close()

	for i := 0; i < n; i++ {
		key, v, err := pair(i)
		if err == nil {
			err = e.attach(key, v)
		}
		if err != nil {
			attachErr = err
			break
		}
	}
	return e.close() != 0, attachErr
}

// IsContractViolation reports whether err was caused by an invalid payload
// key or value.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}
