package native

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	level    Level
	domain   string
	code     string
	payloads []Payload
	file     CString
	line     uint32
}

func recordingCallback(calls *[]call, result int) Callback {
	return func(level Level, _ Timestamp, domain, code CString, payloadCount uint, payloads []Payload, file CString, line uint32) int {
		*calls = append(*calls, call{
			level:    level,
			domain:   string(domain.Bytes()),
			code:     string(code.Bytes()),
			payloads: payloads[:payloadCount],
			file:     file,
			line:     line,
		})
		return result
	}
}

func TestCString(t *testing.T) {
	s := NewCString("café")
	assert.Equal(t, byte(0), s[len(s)-1])
	assert.Equal(t, []byte("café"), s.Bytes())
	assert.False(t, s.IsNull())

	var null CString
	assert.True(t, null.IsNull())
	assert.Empty(t, null.Bytes())

	unterminated := CString("abc")
	assert.Equal(t, []byte("abc"), unterminated.Bytes())
}

func TestEngine_LogWithoutCallback(t *testing.T) {
	e := NewEngine()
	assert.False(t, e.CallbackActive())
	assert.Equal(t, 0, e.Log(LevelFatal, 0, NewCString("d"), NewCString("c"), 0, nil, nil, 0))
}

func TestEngine_LevelFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Level
		level  Level
		want   int
	}{
		{name: "below filter", filter: LevelWarning, level: LevelInformation, want: 0},
		{name: "at filter", filter: LevelWarning, level: LevelWarning, want: 1},
		{name: "above filter", filter: LevelWarning, level: LevelFatal, want: 1},
		{name: "trace filter accepts all", filter: LevelTrace, level: LevelTrace, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []call
			e := NewEngine()
			e.SetLogLevel(tt.filter)
			e.SetLoggingCallback(recordingCallback(&calls, 1))

			got := e.Log(tt.level, 0, NewCString("d"), NewCString("c"), 0, nil, nil, 0)
			assert.Equal(t, tt.want, got)
			assert.Len(t, calls, tt.want)
		})
	}
}

func TestEngine_NullFileForcesLineZero(t *testing.T) {
	var calls []call
	e := NewEngine()
	e.SetLoggingCallback(recordingCallback(&calls, 1))

	e.Log(LevelError, 0, NewCString("d"), NewCString("c"), 0, nil, nil, 42)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].file.IsNull())
	assert.Equal(t, uint32(0), calls[0].line)
}

func TestEngine_EntryLifecycle(t *testing.T) {
	var calls []call
	e := NewEngine()
	e.SetLoggingCallback(recordingCallback(&calls, 1))

	entry := e.Start(LevelWarning, 1.5, NewCString("net"), NewCString("peer_lost"), NewCString("peer.cpp"), 12)
	e.Attach(entry, NewCString("host"), PayloadTypeString, PayloadValue{AsString: NewCString("10.0.0.1")})
	e.Attach(entry, NewCString("port"), PayloadTypeInteger, PayloadValue{AsInteger: 12000})
	assert.Equal(t, 2, entry.Len())

	assert.Equal(t, 1, e.Complete(entry))
	assert.True(t, entry.Released())
	require.Len(t, calls, 1)
	assert.Equal(t, "net", calls[0].domain)
	assert.Equal(t, "peer_lost", calls[0].code)
	assert.Equal(t, uint32(12), calls[0].line)
	require.Len(t, calls[0].payloads, 2)
	assert.Equal(t, []byte("10.0.0.1"), calls[0].payloads[0].Value.AsString.Bytes())
	assert.Equal(t, int64(12000), calls[0].payloads[1].Value.AsInteger)

	// A released entry neither accepts payloads nor dispatches twice.
	e.Attach(entry, NewCString("late"), PayloadTypeBoolean, PayloadValue{AsBoolean: 1})
	assert.Equal(t, 0, entry.Len())
	assert.Equal(t, 0, e.Complete(entry))
	assert.Len(t, calls, 1)
}

func TestEngine_FilteredEntryIsStillReleased(t *testing.T) {
	var calls []call
	e := NewEngine()
	e.SetLogLevel(LevelError)
	e.SetLoggingCallback(recordingCallback(&calls, 1))

	entry := e.Start(LevelDebug, 0, NewCString("d"), NewCString("c"), nil, 0)
	e.Attach(entry, NewCString("k"), PayloadTypeBoolean, PayloadValue{AsBoolean: 1})

	assert.Equal(t, 0, e.Complete(entry))
	assert.True(t, entry.Released())
	assert.Empty(t, calls)
}

func TestEngine_ConcurrentComplete(t *testing.T) {
	var dispatched atomic.Int32
	e := NewEngine()
	e.SetLoggingCallback(func(_ Level, _ Timestamp, domain, code CString, _ uint, _ []Payload, file CString, _ uint32) int {
		if string(domain.Bytes()) == "net" && string(code.Bytes()) == "peer_lost" && string(file.Bytes()) == "peer.cpp" {
			dispatched.Add(1)
		}
		return 1
	})

	entry := e.Start(LevelWarning, 0, NewCString("net"), NewCString("peer_lost"), NewCString("peer.cpp"), 7)
	e.Attach(entry, NewCString("k"), PayloadTypeInteger, PayloadValue{AsInteger: 1})

	const workers = 16
	var handled atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handled.Add(int32(e.Complete(entry)))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), handled.Load())
	assert.Equal(t, int32(1), dispatched.Load())
	assert.True(t, entry.Released())
}

func TestEngine_NilEntry(t *testing.T) {
	e := NewEngine()
	assert.NotPanics(t, func() {
		e.Attach(nil, NewCString("k"), PayloadTypeInteger, PayloadValue{})
	})
	assert.Equal(t, 0, e.Complete(nil))
}

func TestEngine_RemoveCallback(t *testing.T) {
	var calls []call
	e := NewEngine()
	e.SetLoggingCallback(recordingCallback(&calls, 1))
	assert.True(t, e.CallbackActive())

	e.SetLoggingCallback(nil)
	assert.False(t, e.CallbackActive())
	assert.Equal(t, 0, e.Log(LevelFatal, 0, NewCString("d"), NewCString("c"), 0, nil, nil, 0))
	assert.Empty(t, calls)
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Equal(t, LevelInformation, Default().LogLevel())
}
