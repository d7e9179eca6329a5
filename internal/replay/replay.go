// Package replay reads log requests from a JSON-lines stream and writes each
// one through a logbridge.Bridge.
//
// Every non-blank line that does not start with '#' is an object:
//
//	{"level":"warning","timestamp":"2024-03-01T12:30:45Z","domain":"net",
//	 "code":"peer_lost","payload":{"port":12000,"rtt":0.25},"file":"peer.cpp","line":42}
//
// level is a name or a native code, timestamp is RFC 3339 text or epoch
// seconds. Only code is required. null payload values are skipped. The
// output of the jsonl sink is valid replay input.
package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"
)

// MaxLineSize bounds a single request line.
const MaxLineSize = 1 << 20

// Options control a replay run.
type Options struct {
	// Domain is used for requests that carry none.
	Domain string
	// Strict stops the run at the first invalid request.
	Strict bool
	// Now supplies the timestamp of requests that carry none.
	Now    func() time.Time
	Logger logging.Logger
}

// Summary counts what a replay run did.
type Summary struct {
	Read       int
	Emitted    int
	Handled    int
	Invalid    int
	Violations int
}

var parserPool fastjson.ParserPool

// Run emits every request read from r through bridge. Invalid requests are
// logged and skipped unless opts.Strict is set. Contract violations reported
// by Emit are counted, not fatal.
func Run(ctx context.Context, r io.Reader, bridge *logbridge.Bridge, opts Options) (Summary, error) {
	var summary Summary
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		summary.Read++

		req, err := ParseRequest(p, []byte(line), lineNo, opts.Domain, opts.Now().UTC())
		if err != nil {
			summary.Invalid++
			if opts.Strict {
				return summary, err
			}
			opts.Logger.WithError(err).Warn("Skipping invalid log request",
				logging.Field{Key: logging.FieldLine, Value: lineNo})
			continue
		}

		if len(req.Dropped) > 0 {
			opts.Logger.Debug("Dropped null payload values",
				logging.Field{Key: logging.FieldLine, Value: lineNo},
				logging.Field{Key: logging.FieldKey, Value: strings.Join(req.Dropped, ",")})
		}

		handled, err := bridge.Emit(req.Level, req.Timestamp, req.Domain, req.Code, req.Payload, req.Source)
		summary.Emitted++
		if handled {
			summary.Handled++
		}
		if err != nil {
			summary.Violations++
			opts.Logger.WithError(err).Warn("Log request payload rejected",
				logging.Field{Key: logging.FieldLine, Value: lineNo},
				logging.Field{Key: logging.FieldCode, Value: req.Code})
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("error reading replay input: %w", err)
	}

	opts.Logger.Debug("Replay finished",
		logging.Field{Key: logging.FieldCount, Value: summary.Read},
		logging.Field{Key: "handled", Value: summary.Handled},
		logging.Field{Key: "invalid", Value: summary.Invalid})
	return summary, nil
}

// Open opens a replay input. "-" is stdin. Files ending in ".gz" are
// decompressed.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path) // #nosec G304 -- input path is given by the operator
	if err != nil {
		return nil, fmt.Errorf("error opening replay input: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error opening compressed replay input: %w", err)
	}
	return &gzipFile{Reader: gz, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}
