package sink

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"
)

// JSONLSink writes one JSON object per line:
//
//	{"id":"…","timestamp":"…","level":"warning","domain":"…","code":"…","payload":{…},"file":"…","line":12}
//
// file and line are omitted when the event has no source location. Integer
// payloads are written without a fraction and float payloads always carry
// one, so replaying the output keeps integers and floats apart. JSON has no
// literal for NaN or infinities: those floats are written as strings and
// replay as strings. Unknown payloads are written as null and are left out
// on replay.
type JSONLSink struct {
	writer
	gz    *gzip.Writer
	arena fastjson.Arena
	buf   []byte
}

// NewJSONLSink creates a JSON-lines sink writing to out. Close closes out.
func NewJSONLSink(out io.WriteCloser, logger logging.Logger) *JSONLSink {
	if logger == nil {
		logger = logging.Discard()
	}
	return &JSONLSink{writer: writer{name: config.SinkJSONL, out: out, logger: logger}}
}

// NewCompressedJSONLSink is NewJSONLSink with gzip compression.
func NewCompressedJSONLSink(out io.WriteCloser, logger logging.Logger) (*JSONLSink, error) {
	gz, err := gzip.NewWriterLevel(out, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	s := NewJSONLSink(out, logger)
	s.gz = gz
	return s, nil
}

// Name implements Sink.
func (s *JSONLSink) Name() string { return config.SinkJSONL }

// HandleLog implements logbridge.Handler.
func (s *JSONLSink) HandleLog(e logbridge.Event) bool {
	return s.handle(e, func(rec Record) error {
		s.buf = append(s.marshal(rec), '\n')
		if s.gz != nil {
			if _, err := s.gz.Write(s.buf); err != nil {
				return err
			}
			return s.gz.Flush()
		}
		_, err := s.out.Write(s.buf)
		return err
	})
}

// Close implements Sink.
func (s *JSONLSink) Close() error {
	var flush func() error
	if s.gz != nil {
		flush = s.gz.Close
	}
	return s.close(flush)
}

func (s *JSONLSink) marshal(rec Record) []byte {
	a := &s.arena
	a.Reset()
	e := rec.Event

	o := a.NewObject()
	o.Set("id", a.NewString(rec.ID))
	o.Set("timestamp", a.NewString(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	o.Set("level", a.NewString(e.Level.String()))
	o.Set("domain", a.NewString(e.Domain))
	o.Set("code", a.NewString(e.Code))

	payload := a.NewObject()
	for _, pair := range e.Payload.Pairs() {
		payload.Set(pair.Key, jsonValue(a, pair.Value))
	}
	o.Set("payload", payload)

	if e.Source != nil {
		o.Set("file", a.NewString(e.Source.File))
		o.Set("line", a.NewNumberString(strconv.FormatUint(uint64(e.Source.Line), 10)))
	}
	return o.MarshalTo(s.buf[:0])
}

func jsonValue(a *fastjson.Arena, v logbridge.Value) *fastjson.Value {
	switch v := v.(type) {
	case logbridge.String:
		return a.NewString(string(v))
	case logbridge.Integer:
		return a.NewNumberString(strconv.FormatInt(int64(v), 10))
	case logbridge.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// JSON has no representation for these.
			return a.NewString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return a.NewNumberString(floatLiteral(f))
	case logbridge.Boolean:
		if v {
			return a.NewTrue()
		}
		return a.NewFalse()
	default:
		return a.NewNull()
	}
}

// floatLiteral formats f so that it always reads back as a float.
func floatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
