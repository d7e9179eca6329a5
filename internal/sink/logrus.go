package sink

import (
	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"
)

// LogrusSink writes events to the operator's logger. Payload pairs become
// fields; the event code is the message.
type LogrusSink struct {
	logger logging.Logger
}

// NewLogrusSink creates a sink writing to logger. The logger must not have a
// logbridge.Hook installed that feeds the same bridge, or events would loop.
func NewLogrusSink(logger logging.Logger) *LogrusSink {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LogrusSink{logger: logger}
}

// Name implements Sink.
func (s *LogrusSink) Name() string { return config.SinkLogrus }

// Close implements Sink. The logger is not owned by the sink.
func (s *LogrusSink) Close() error { return nil }

// HandleLog implements logbridge.Handler.
func (s *LogrusSink) HandleLog(e logbridge.Event) bool {
	rec := newRecord(e)

	fields := make([]logging.Field, 0, e.Payload.Len()+5)
	fields = append(fields,
		logging.Field{Key: logging.FieldEventID, Value: rec.ID},
		logging.Field{Key: logging.FieldDomain, Value: e.Domain},
		logging.Field{Key: logging.FieldLevel, Value: e.Level.String()},
	)
	if e.Source != nil {
		fields = append(fields,
			logging.Field{Key: logging.FieldFile, Value: e.Source.File},
			logging.Field{Key: logging.FieldLine, Value: e.Source.Line})
	}
	for _, pair := range e.Payload.Pairs() {
		fields = append(fields, logging.Field{Key: "payload." + pair.Key, Value: fieldValue(pair.Value)})
	}

	logger := s.logger.WithFields(fields...)
	switch e.Level {
	case logbridge.LevelFatal, logbridge.LevelError:
		logger.Error(e.Code)
	case logbridge.LevelWarning:
		logger.Warn(e.Code)
	case logbridge.LevelImportant, logbridge.LevelInformation:
		logger.Info(e.Code)
	default:
		logger.Debug(e.Code)
	}
	return true
}

func fieldValue(v logbridge.Value) any {
	if !logbridge.Present(v) {
		if v == nil {
			return nil
		}
		return v.String()
	}
	return v.Any()
}
