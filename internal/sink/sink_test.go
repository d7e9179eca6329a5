package sink

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
	"gopkg.in/yaml.v3"
)

var testTime = time.Date(2024, 3, 1, 12, 30, 45, 250000000, time.UTC)

func testEvent() logbridge.Event {
	return logbridge.Event{
		Level:     logbridge.LevelWarning,
		Timestamp: testTime,
		Domain:    "net",
		Code:      "peer_lost",
		Payload: logbridge.NewPayload(
			logbridge.Pair{Key: "host", Value: logbridge.String("10.0.0.1")},
			logbridge.Pair{Key: "port", Value: logbridge.Integer(12000)},
			logbridge.Pair{Key: "rtt", Value: logbridge.Float(0.1)},
			logbridge.Pair{Key: "retry", Value: logbridge.Boolean(true)},
		),
		Source: &logbridge.Location{File: "peer.cpp", Line: 42},
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
func (failingWriter) Close() error              { return nil }

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestCSVSink(t *testing.T) {
	out := &closeRecorder{}
	s := NewCSVSink(out, nil)

	assert.True(t, s.HandleLog(testEvent()))
	second := testEvent()
	second.Source = nil
	second.Payload = nil
	assert.True(t, s.HandleLog(second))
	require.NoError(t, s.Close())
	assert.True(t, out.closed)

	var rows []CSVRow
	require.NoError(t, gocsv.UnmarshalBytes(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1, strings.Count(out.String(), "ID,Timestamp"), "header written once")

	_, err := uuid.Parse(rows[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.Equal(t, "2024-03-01T12:30:45.25Z", rows[0].Timestamp)
	assert.Equal(t, "warning", rows[0].Level)
	assert.Equal(t, "net", rows[0].Domain)
	assert.Equal(t, "peer_lost", rows[0].Code)
	assert.Equal(t, "host=10.0.0.1;port=12000;rtt=0.1;retry=true", rows[0].Payload)
	assert.Equal(t, "peer.cpp", rows[0].File)
	assert.Equal(t, uint32(42), rows[0].Line)

	assert.Equal(t, "", rows[1].Payload)
	assert.Equal(t, "", rows[1].File)
	assert.Equal(t, uint32(0), rows[1].Line)

	// Closed sinks refuse events.
	assert.False(t, s.HandleLog(testEvent()))
	assert.NoError(t, s.Close())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value logbridge.Value
		want  string
	}{
		{name: "string", value: logbridge.String("a b"), want: "a b"},
		{name: "integer", value: logbridge.Integer(-7), want: "-7"},
		{name: "float", value: logbridge.Float(1.5), want: "1.5"},
		{name: "small float", value: logbridge.Float(0.000001), want: "0.000001"},
		{name: "nan", value: logbridge.Float(math.NaN()), want: "NaN"},
		{name: "boolean", value: logbridge.Boolean(false), want: "false"},
		{name: "unknown", value: logbridge.Unknown{Tag: 9}, want: ""},
		{name: "nil", value: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}
}

func TestJSONLSink(t *testing.T) {
	out := &closeRecorder{}
	s := NewJSONLSink(out, nil)

	event := testEvent()
	event.Payload.Set("whole", logbridge.Float(2))
	event.Payload.Set("odd", logbridge.Unknown{Tag: 7})
	assert.True(t, s.HandleLog(event))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)

	v, err := fastjson.Parse(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "net", string(v.GetStringBytes("domain")))
	assert.Equal(t, "peer_lost", string(v.GetStringBytes("code")))
	assert.Equal(t, "warning", string(v.GetStringBytes("level")))
	assert.Equal(t, "2024-03-01T12:30:45.25Z", string(v.GetStringBytes("timestamp")))
	assert.Equal(t, "peer.cpp", string(v.GetStringBytes("file")))
	assert.Equal(t, 42, v.GetInt("line"))

	payload := v.GetObject("payload")
	require.NotNil(t, payload)
	assert.Equal(t, "12000", payload.Get("port").String())
	assert.Equal(t, "2.0", payload.Get("whole").String())
	assert.Equal(t, fastjson.TypeTrue, payload.Get("retry").Type())
	assert.Equal(t, fastjson.TypeNull, payload.Get("odd").Type())

	var keys []string
	payload.Visit(func(key []byte, _ *fastjson.Value) {
		keys = append(keys, string(key))
	})
	assert.Equal(t, []string{"host", "port", "rtt", "retry", "whole", "odd"}, keys)
}

func TestJSONLSink_NoSource(t *testing.T) {
	out := &closeRecorder{}
	s := NewJSONLSink(out, nil)

	event := testEvent()
	event.Source = nil
	require.True(t, s.HandleLog(event))

	v, err := fastjson.ParseBytes(bytes.TrimSpace(out.Bytes()))
	require.NoError(t, err)
	assert.False(t, v.Exists("file"))
	assert.False(t, v.Exists("line"))
}

func TestCompressedJSONLSink(t *testing.T) {
	out := &closeRecorder{}
	s, err := NewCompressedJSONLSink(out, nil)
	require.NoError(t, err)

	require.True(t, s.HandleLog(testEvent()))
	require.True(t, s.HandleLog(testEvent()))
	require.NoError(t, s.Close())

	gz, err := gzip.NewReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
	assert.Contains(t, string(data), `"code":"peer_lost"`)
}

func TestYAMLSink(t *testing.T) {
	out := &closeRecorder{}
	s := NewYAMLSink(out, nil)

	event := testEvent()
	event.Payload.Set("odd", logbridge.Unknown{Tag: 7})
	require.True(t, s.HandleLog(event))
	require.NoError(t, s.Close())

	var doc struct {
		ID      string    `yaml:"id"`
		Level   string    `yaml:"level"`
		Domain  string    `yaml:"domain"`
		Payload yaml.Node `yaml:"payload"`
		File    string    `yaml:"file"`
		Line    uint32    `yaml:"line"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "warning", doc.Level)
	assert.Equal(t, "net", doc.Domain)
	assert.Equal(t, "peer.cpp", doc.File)
	assert.Equal(t, uint32(42), doc.Line)

	require.Equal(t, yaml.MappingNode, doc.Payload.Kind)
	var keys, tags []string
	for i := 0; i < len(doc.Payload.Content); i += 2 {
		keys = append(keys, doc.Payload.Content[i].Value)
		tags = append(tags, doc.Payload.Content[i+1].Tag)
	}
	assert.Equal(t, []string{"host", "port", "rtt", "retry", "odd"}, keys)
	assert.Equal(t, []string{"!!str", "!!int", "!!float", "!!bool", "!!null"}, tags)
}

func TestFileSink_WriteFailure(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewJSONLSink(failingWriter{}, logger)

	assert.False(t, s.HandleLog(testEvent()))

	entries := logger.GetEntriesByLevel("ERROR")
	require.Len(t, entries, 1)
	assert.Equal(t, "Failed to write log event", entries[0].Message)

	var sinkErr *logerror.SinkError
	require.ErrorAs(t, entries[0].Error, &sinkErr)
	assert.Equal(t, config.SinkJSONL, sinkErr.Sink)
	assert.Equal(t, "write", sinkErr.Op)

	op, ok := entries[0].Field(logging.FieldOperation)
	require.True(t, ok)
	assert.Equal(t, "write", op)
	name, ok := entries[0].Field(logging.FieldSink)
	require.True(t, ok)
	assert.Equal(t, config.SinkJSONL, name)
}

func TestLogrusSink(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewLogrusSink(logger)

	event := testEvent()
	event.Level = logbridge.LevelFatal
	assert.True(t, s.HandleLog(event))

	entries := logger.GetEntriesByLevel("ERROR")
	require.Len(t, entries, 1)
	assert.Equal(t, "peer_lost", entries[0].Message)

	value, ok := entries[0].Field("payload.port")
	require.True(t, ok)
	assert.Equal(t, int64(12000), value)
	value, ok = entries[0].Field(logging.FieldDomain)
	require.True(t, ok)
	assert.Equal(t, "net", value)
	value, ok = entries[0].Field(logging.FieldLevel)
	require.True(t, ok)
	assert.Equal(t, "fatal", value)
}

func TestLogrusSink_Levels(t *testing.T) {
	tests := []struct {
		level logbridge.Level
		want  string
	}{
		{logbridge.LevelError, "ERROR"},
		{logbridge.LevelWarning, "WARN"},
		{logbridge.LevelImportant, "INFO"},
		{logbridge.LevelInformation, "INFO"},
		{logbridge.LevelDebug, "DEBUG"},
		{logbridge.LevelTrace, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger := logging.NewMockLogger()
			event := testEvent()
			event.Level = tt.level
			NewLogrusSink(logger).HandleLog(event)
			assert.Len(t, logger.GetEntriesByLevel(tt.want), 1)
		})
	}
}

func TestFanoutAndRecorder(t *testing.T) {
	accept := NewRecorder()
	reject := NewRecorder()
	reject.Reject = true

	f := NewFanout(reject, nil, accept)
	assert.Equal(t, "fanout(memory,memory)", f.Name())
	assert.True(t, f.HandleLog(testEvent()))
	assert.Len(t, accept.Events(), 1)
	assert.Len(t, reject.Events(), 1)

	assert.False(t, NewFanout(reject).HandleLog(testEvent()))
	assert.False(t, NewFanout().HandleLog(testEvent()))

	accept.Reset()
	assert.Empty(t, accept.Records())
	assert.NoError(t, f.Close())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		sinkType string
		wantName string
	}{
		{name: "default", sinkType: "", wantName: config.SinkLogrus},
		{name: "logrus", sinkType: config.SinkLogrus, wantName: config.SinkLogrus},
		{name: "none", sinkType: config.SinkNone, wantName: config.SinkNone},
		{name: "csv", sinkType: config.SinkCSV, wantName: config.SinkCSV},
		{name: "jsonl", sinkType: config.SinkJSONL, wantName: config.SinkJSONL},
		{name: "yaml", sinkType: config.SinkYAML, wantName: config.SinkYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			s, err := New(Options{Type: tt.sinkType, Stdout: &stdout})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, s.Name())
			assert.True(t, s.HandleLog(testEvent()))
			assert.NoError(t, s.Close())
		})
	}

	_, err := New(Options{Type: "kafka"})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl.gz")
	s, err := New(Options{Type: config.SinkJSONL, Path: path, Compress: true})
	require.NoError(t, err)
	require.True(t, s.HandleLog(testEvent()))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"domain":"net"`)
}

func TestNew_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	logger := logging.NewMockLogger()
	target := filepath.Join(blocker, "events.csv")
	_, err := New(Options{Type: config.SinkCSV, Path: target, Logger: logger})
	var sinkErr *logerror.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "open", sinkErr.Op)

	entries := logger.GetEntriesByLevel("ERROR")
	require.Len(t, entries, 1)
	assert.Equal(t, "Failed to open sink output", entries[0].Message)
	path, ok := entries[0].Field(logging.FieldPath)
	require.True(t, ok)
	assert.Equal(t, target, path)
}
