package replay

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/pkg/logbridge"
	"fjacquet/freelog/pkg/native"

	"github.com/valyala/fastjson"
)

// Request is one log call read from a replay stream.
type Request struct {
	Line      int
	Level     logbridge.Level
	Timestamp time.Time
	Domain    string
	Code      string
	Payload   *logbridge.Payload
	Source    *logbridge.Location
	// Dropped lists payload keys whose value was null. The jsonl sink writes
	// undecodable native payloads that way.
	Dropped []string
}

// ParseRequest decodes a single JSON object. line is used for error
// reporting; domain fills in a missing "domain"; now fills in a missing
// "timestamp".
func ParseRequest(p *fastjson.Parser, data []byte, line int, domain string, now time.Time) (*Request, error) {
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, &logerror.RequestError{Line: line, Field: "json", Reason: "malformed document", Err: err}
	}
	if v.Type() != fastjson.TypeObject {
		return nil, &logerror.RequestError{Line: line, Field: "json", Reason: "expected an object, got " + v.Type().String()}
	}

	req := &Request{Line: line, Domain: domain, Timestamp: now}

	if req.Level, err = parseLevel(v.Get("level")); err != nil {
		return nil, &logerror.RequestError{Line: line, Field: "level", Reason: err.Error()}
	}
	if ts := v.Get("timestamp"); ts != nil {
		if req.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, &logerror.RequestError{Line: line, Field: "timestamp", Reason: "unparseable", Err: err}
		}
	}
	if d := v.Get("domain"); d != nil {
		if req.Domain, err = stringField(d); err != nil {
			return nil, &logerror.RequestError{Line: line, Field: "domain", Reason: err.Error()}
		}
	}
	if c := v.Get("code"); c != nil {
		if req.Code, err = stringField(c); err != nil {
			return nil, &logerror.RequestError{Line: line, Field: "code", Reason: err.Error()}
		}
	}
	if req.Code == "" {
		return nil, &logerror.RequestError{Line: line, Field: "code", Reason: "missing"}
	}

	if f := v.Get("file"); f != nil && f.Type() != fastjson.TypeNull {
		file, err := stringField(f)
		if err != nil {
			return nil, &logerror.RequestError{Line: line, Field: "file", Reason: err.Error()}
		}
		var lineNo uint
		if l := v.Get("line"); l != nil {
			if lineNo, err = l.Uint(); err != nil || lineNo > math.MaxUint32 {
				return nil, &logerror.RequestError{Line: line, Field: "line", Reason: "not a 32-bit unsigned integer", Err: err}
			}
		}
		if file != "" {
			req.Source = &logbridge.Location{File: file, Line: uint32(lineNo)}
		}
	}

	if pv := v.Get("payload"); pv != nil && pv.Type() != fastjson.TypeNull {
		if req.Payload, req.Dropped, err = payloadObject(pv); err != nil {
			var reqErr *logerror.RequestError
			if errors.As(err, &reqErr) {
				reqErr.Line = line
				return nil, reqErr
			}
			return nil, &logerror.RequestError{Line: line, Field: "payload", Reason: "expected an object", Err: err}
		}
	}

	return req, nil
}

// ParsePayload decodes a JSON object into a payload, keeping key order.
// Keys with a null value are left out.
func ParsePayload(data []byte) (*logbridge.Payload, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, &logerror.RequestError{Field: "payload", Reason: "malformed document", Err: err}
	}
	payload, _, err := payloadObject(v)
	if err != nil {
		var reqErr *logerror.RequestError
		if errors.As(err, &reqErr) {
			return nil, err
		}
		return nil, &logerror.RequestError{Field: "payload", Reason: "expected an object", Err: err}
	}
	return payload, nil
}

// payloadObject decodes an object of scalars. null values are skipped and
// their keys returned as dropped.
func payloadObject(v *fastjson.Value) (payload *logbridge.Payload, dropped []string, err error) {
	obj, err := v.Object()
	if err != nil {
		return nil, nil, err
	}
	payload = logbridge.NewPayload()
	var payloadErr error
	obj.Visit(func(key []byte, value *fastjson.Value) {
		if payloadErr != nil {
			return
		}
		if value.Type() == fastjson.TypeNull {
			dropped = append(dropped, string(key))
			return
		}
		pvalue, err := payloadValue(value)
		if err != nil {
			payloadErr = &logerror.RequestError{Field: "payload." + string(key), Reason: err.Error()}
			return
		}
		payload.Set(string(key), pvalue)
	})
	if payloadErr != nil {
		return nil, nil, payloadErr
	}
	return payload, dropped, nil
}

// parseLevel accepts a level name or a native severity code. Missing means
// information.
func parseLevel(v *fastjson.Value) (logbridge.Level, error) {
	if v == nil {
		return logbridge.LevelInformation, nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		return logbridge.ParseLevel(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		code, err := v.Uint()
		if err != nil || code > math.MaxUint32 {
			return logbridge.LevelTrace, fmt.Errorf("native level code %s out of range", v.String())
		}
		level, _ := logbridge.LevelFromNative(native.Level(code))
		return level, nil
	default:
		return logbridge.LevelTrace, fmt.Errorf("expected a name or a native code, got %s", v.Type())
	}
}

// parseTimestamp accepts RFC 3339 text or native epoch seconds.
func parseTimestamp(v *fastjson.Value) (time.Time, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return time.Parse(time.RFC3339Nano, string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, err
		}
		return logbridge.FromNativeTimestamp(native.Timestamp(f)), nil
	default:
		return time.Time{}, fmt.Errorf("expected a string or a number, got %s", v.Type())
	}
}

func stringField(v *fastjson.Value) (string, error) {
	b, err := v.StringBytes()
	if err != nil {
		return "", fmt.Errorf("expected a string, got %s", v.Type())
	}
	return string(b), nil
}

// payloadValue maps a JSON value onto a payload value. Numbers written with
// a fraction or an exponent are floats; all others are integers.
func payloadValue(v *fastjson.Value) (logbridge.Value, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return logbridge.String(v.GetStringBytes()), nil
	case fastjson.TypeTrue:
		return logbridge.Boolean(true), nil
	case fastjson.TypeFalse:
		return logbridge.Boolean(false), nil
	case fastjson.TypeNumber:
		literal := v.String()
		if strings.ContainsAny(literal, ".eE") {
			f, err := strconv.ParseFloat(literal, 64)
			if err != nil {
				return nil, fmt.Errorf("float %s out of range", literal)
			}
			return logbridge.Float(f), nil
		}
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %s out of range", literal)
		}
		return logbridge.Integer(i), nil
	default:
		return nil, fmt.Errorf("unsupported payload value type %s", v.Type())
	}
}
