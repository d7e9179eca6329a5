package sink

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Delimiter separates CSV columns.
var Delimiter rune = ','

// CSVRow is one event as written by CSVSink.
type CSVRow struct {
	ID        string `csv:"ID"`
	Timestamp string `csv:"Timestamp"`
	Level     string `csv:"Level"`
	Domain    string `csv:"Domain"`
	Code      string `csv:"Code"`
	Payload   string `csv:"Payload"`
	File      string `csv:"File"`
	Line      uint32 `csv:"Line"`
}

// CSVSink writes one row per event. The header row is written with the
// first event.
type CSVSink struct {
	writer
	csv           *gocsv.SafeCSVWriter
	headerWritten bool
}

// NewCSVSink creates a CSV sink writing to out. Close closes out.
func NewCSVSink(out io.WriteCloser, logger logging.Logger) *CSVSink {
	if logger == nil {
		logger = logging.Discard()
	}
	csvWriter := csv.NewWriter(out)
	csvWriter.Comma = Delimiter
	return &CSVSink{
		writer: writer{name: config.SinkCSV, out: out, logger: logger},
		csv:    gocsv.NewSafeCSVWriter(csvWriter),
	}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return config.SinkCSV }

// HandleLog implements logbridge.Handler.
func (s *CSVSink) HandleLog(e logbridge.Event) bool {
	return s.handle(e, func(rec Record) error {
		rows := []CSVRow{newCSVRow(rec)}
		var err error
		if s.headerWritten {
			err = gocsv.MarshalCSVWithoutHeaders(rows, s.csv)
		} else {
			err = gocsv.MarshalCSV(rows, s.csv)
		}
		if err != nil {
			return err
		}
		s.headerWritten = true
		s.csv.Flush()
		return s.csv.Error()
	})
}

// Close implements Sink.
func (s *CSVSink) Close() error {
	return s.close(func() error {
		s.csv.Flush()
		return s.csv.Error()
	})
}

func newCSVRow(rec Record) CSVRow {
	e := rec.Event
	return CSVRow{
		ID:        rec.ID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:     e.Level.String(),
		Domain:    e.Domain,
		Code:      e.Code,
		Payload:   formatPayload(e.Payload),
		File:      e.File(),
		Line:      e.Line(),
	}
}

// formatPayload renders pairs as "key=value" joined by ';'. Floats are
// written in their shortest exact decimal form.
func formatPayload(p *logbridge.Payload) string {
	pairs := p.Pairs()
	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		parts[i] = pair.Key + "=" + formatValue(pair.Value)
	}
	return strings.Join(parts, ";")
}

func formatValue(v logbridge.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case logbridge.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return decimal.NewFromFloat(f).String()
	case logbridge.Unknown:
		return ""
	default:
		return v.String()
	}
}
