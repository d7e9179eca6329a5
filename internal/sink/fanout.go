package sink

import (
	"errors"
	"strings"
	"sync"

	"fjacquet/freelog/pkg/logbridge"
)

// Fanout delivers every event to each of its sinks in order.
type Fanout struct {
	sinks []Sink
}

// NewFanout combines sinks. nil entries are skipped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Name implements Sink.
func (f *Fanout) Name() string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return "fanout(" + strings.Join(names, ",") + ")"
}

// HandleLog implements logbridge.Handler. The event is handled when any sink
// handled it.
func (f *Fanout) HandleLog(e logbridge.Event) bool {
	handled := false
	for _, s := range f.sinks {
		if s.HandleLog(e) {
			handled = true
		}
	}
	return handled
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	// Reject makes HandleLog report events as not handled.
	Reject bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Name implements Sink.
func (r *Recorder) Name() string { return "memory" }

// Close implements Sink.
func (r *Recorder) Close() error { return nil }

// HandleLog implements logbridge.Handler.
func (r *Recorder) HandleLog(e logbridge.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, newRecord(e))
	return !r.Reject
}

// Records returns a copy of the recorded events in arrival order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Events returns the recorded events in arrival order.
func (r *Recorder) Events() []logbridge.Event {
	records := r.Records()
	events := make([]logbridge.Event, len(records))
	for i, rec := range records {
		events[i] = rec.Event
	}
	return events
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
