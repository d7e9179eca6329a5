package sink

import (
	"io"
	"time"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"gopkg.in/yaml.v3"
)

// YAMLDocument is one event as written by YAMLSink.
type YAMLDocument struct {
	ID        string    `yaml:"id"`
	Timestamp string    `yaml:"timestamp"`
	Level     string    `yaml:"level"`
	Domain    string    `yaml:"domain"`
	Code      string    `yaml:"code"`
	Payload   yaml.Node `yaml:"payload"`
	File      string    `yaml:"file,omitempty"`
	Line      uint32    `yaml:"line,omitempty"`
}

// YAMLSink writes one YAML document per event. Payload keys keep their
// order.
type YAMLSink struct {
	writer
	enc *yaml.Encoder
}

// NewYAMLSink creates a YAML sink writing to out. Close closes out.
func NewYAMLSink(out io.WriteCloser, logger logging.Logger) *YAMLSink {
	if logger == nil {
		logger = logging.Discard()
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	return &YAMLSink{
		writer: writer{name: config.SinkYAML, out: out, logger: logger},
		enc:    enc,
	}
}

// Name implements Sink.
func (s *YAMLSink) Name() string { return config.SinkYAML }

// HandleLog implements logbridge.Handler.
func (s *YAMLSink) HandleLog(e logbridge.Event) bool {
	return s.handle(e, func(rec Record) error {
		doc, err := newYAMLDocument(rec)
		if err != nil {
			return err
		}
		return s.enc.Encode(&doc)
	})
}

// Close implements Sink.
func (s *YAMLSink) Close() error {
	return s.close(s.enc.Close)
}

func newYAMLDocument(rec Record) (YAMLDocument, error) {
	e := rec.Event
	doc := YAMLDocument{
		ID:        rec.ID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:     e.Level.String(),
		Domain:    e.Domain,
		Code:      e.Code,
		Payload:   yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"},
		File:      e.File(),
		Line:      e.Line(),
	}
	for _, pair := range e.Payload.Pairs() {
		var value yaml.Node
		if err := value.Encode(plainValue(pair.Value)); err != nil {
			return doc, err
		}
		doc.Payload.Content = append(doc.Payload.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&value)
	}
	return doc, nil
}
