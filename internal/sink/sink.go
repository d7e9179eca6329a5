// Package sink provides the handlers that receive decoded native log events
// and write them somewhere: the operator's logrus logger, CSV, JSON lines or
// YAML files, or memory.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/google/uuid"
)

// Sink is a logbridge.Handler that owns an output and must be closed.
type Sink interface {
	logbridge.Handler
	Name() string
	Close() error
}

// Record is an event as stored by a sink, tagged with a unique id.
type Record struct {
	ID    string
	Event logbridge.Event
}

func newRecord(e logbridge.Event) Record {
	return Record{ID: uuid.NewString(), Event: e}
}

// Options selects and configures the sink built by New.
type Options struct {
	Type     string
	Path     string
	Compress bool
	// Stdout receives output when Path is empty or "-". Defaults to os.Stdout.
	Stdout io.Writer
	Logger logging.Logger
}

// New builds the sink described by opts.
func New(opts Options) (Sink, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	switch opts.Type {
	case config.SinkLogrus, "":
		return NewLogrusSink(opts.Logger), nil
	case config.SinkNone:
		return Discard(), nil
	case config.SinkCSV, config.SinkJSONL, config.SinkYAML:
	default:
		return nil, fmt.Errorf("unknown sink type: %s", opts.Type)
	}

	w, err := openOutput(opts.Path, opts.Stdout)
	if err != nil {
		sinkErr := &logerror.SinkError{Sink: opts.Type, Op: "open", Err: err}
		opts.Logger.WithError(sinkErr).Error("Failed to open sink output",
			logging.Field{Key: logging.FieldSink, Value: opts.Type},
			logging.Field{Key: logging.FieldPath, Value: opts.Path})
		return nil, sinkErr
	}

	switch opts.Type {
	case config.SinkCSV:
		return NewCSVSink(w, opts.Logger), nil
	case config.SinkYAML:
		return NewYAMLSink(w, opts.Logger), nil
	default:
		if opts.Compress {
			return NewCompressedJSONLSink(w, opts.Logger)
		}
		return NewJSONLSink(w, opts.Logger), nil
	}
}

// openOutput opens path for writing, creating its directory. An empty path
// or "-" selects stdout, which is never closed.
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return nopCloser{stdout}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.Create(path) // #nosec G304 -- output path comes from the operator's configuration
	if err != nil {
		return nil, fmt.Errorf("error creating output file: %w", err)
	}
	return file, nil
}

// plainValue returns v as a plain Go value, nil when absent or unknown.
func plainValue(v logbridge.Value) any {
	if v == nil {
		return nil
	}
	return v.Any()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// writer is the shared write path of the file sinks: it serializes writes,
// refuses them after Close and reports failures through the logger.
type writer struct {
	mu     sync.Mutex
	name   string
	out    io.WriteCloser
	logger logging.Logger
	closed bool
}

func (w *writer) handle(e logbridge.Event, write func(Record) error) bool {
	rec := newRecord(e)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if err := write(rec); err != nil {
		sinkErr := &logerror.SinkError{Sink: w.name, Op: "write", Err: err}
		w.logger.WithError(sinkErr).Error("Failed to write log event",
			logging.Field{Key: logging.FieldSink, Value: sinkErr.Sink},
			logging.Field{Key: logging.FieldOperation, Value: sinkErr.Op},
			logging.Field{Key: logging.FieldEventID, Value: rec.ID},
			logging.Field{Key: logging.FieldDomain, Value: e.Domain},
			logging.Field{Key: logging.FieldCode, Value: e.Code})
		return false
	}
	return true
}

// close runs flush, then closes the output. Both errors are reported.
func (w *writer) close(flush func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if flush != nil {
		if err := flush(); err != nil {
			errs = append(errs, &logerror.SinkError{Sink: w.name, Op: "flush", Err: err})
		}
	}
	if err := w.out.Close(); err != nil {
		errs = append(errs, &logerror.SinkError{Sink: w.name, Op: "close", Err: err})
	}
	return errors.Join(errs...)
}

type discardSink struct{}

// Discard returns a sink that accepts and drops every event.
func Discard() Sink {
	return discardSink{}
}

func (discardSink) HandleLog(logbridge.Event) bool { return true }
func (discardSink) Name() string                   { return config.SinkNone }
func (discardSink) Close() error                   { return nil }
