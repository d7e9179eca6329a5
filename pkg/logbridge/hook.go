package logbridge

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Hook is a logrus.Hook that forwards every fired logrus entry to a Bridge.
// The entry message becomes the event code and the entry data its payload.
//
// Do not install a Hook on a logger that is also fed by the same bridge's
// handler: every forwarded entry would come straight back.
type Hook struct {
	bridge *Bridge
	domain string
	levels []logrus.Level
}

// NewHook returns a hook emitting under domain for the given levels, or for
// every level when none are given.
func NewHook(bridge *Bridge, domain string, levels ...logrus.Level) *Hook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}
	return &Hook{bridge: bridge, domain: domain, levels: levels}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire implements logrus.Hook. Only contract violations are returned;
// unhandled entries are not an error.
func (h *Hook) Fire(entry *logrus.Entry) error {
	var loc *Location
	if entry.HasCaller() {
		loc = &Location{File: entry.Caller.File, Line: uint32(entry.Caller.Line)}
	}
	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := h.bridge.EmitFields(LevelFromLogrus(entry.Level), ts.UTC(), h.domain, entry.Message, entry.Data, loc)
	return err
}
