package logbridge

import (
	"fmt"
	"unicode/utf8"

	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/native"
)

// Callback is the native.Callback the bridge registers. It returns 1 when
// the installed handler reports the event handled and 0 otherwise,
// including when no handler is installed. It never panics: a panicking
// handler or decoder is recovered, logged and reported as 0.
func (b *Bridge) Callback(level native.Level, timestamp native.Timestamp, domain, code native.CString, payloadCount uint, payloads []native.Payload, file native.CString, line uint32) (handled int) {
	slot := b.handler.Load()
	if slot == nil {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			b.stats.callbackPanics.Add(1)
			b.logger.Error("Recovered panic in native log callback",
				logging.Field{Key: logging.FieldPanic, Value: fmt.Sprint(r)},
				logging.Field{Key: logging.FieldDomain, Value: string(domain.Bytes())},
				logging.Field{Key: logging.FieldCode, Value: string(code.Bytes())})
			handled = 0
		}
	}()

	lvl, exact := LevelFromNative(level)
	if !exact {
		b.logger.Warn("Unknown native log level",
			logging.Field{Key: logging.FieldLevel, Value: uint32(level)})
	}

	event := Event{
		Level:     lvl,
		Timestamp: FromNativeTimestamp(timestamp),
		Domain:    string(domain.Bytes()),
		Code:      string(code.Bytes()),
		Payload:   b.decodePayloads(payloadCount, payloads),
	}
	if !file.IsNull() {
		event.Source = &Location{File: string(file.Bytes()), Line: line}
	}

	if slot.handler.HandleLog(event) {
		return 1
	}
	return 0
}

func (b *Bridge) decodePayloads(count uint, payloads []native.Payload) *Payload {
	n := len(payloads)
	if count < uint(n) {
		n = int(count)
	} else if count > uint(n) {
		b.logger.Warn("Native payload count exceeds payload array",
			logging.Field{Key: logging.FieldCount, Value: count},
			logging.Field{Key: "available", Value: n})
	}

	p := &Payload{pairs: make([]Pair, 0, n)}
	for i := 0; i < n; i++ {
		key, v := b.decodePayload(i, payloads[i])
		p.Set(key, v)
	}
	return p
}

// decodePayload decodes a single native payload. Anything that cannot be
// decoded degrades to Unknown rather than failing the whole event.
func (b *Bridge) decodePayload(index int, pl native.Payload) (key string, v Value) {
	key = fmt.Sprintf("#%d", index)
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("Recovered panic decoding native payload",
				logging.Field{Key: logging.FieldKey, Value: key},
				logging.Field{Key: logging.FieldPanic, Value: fmt.Sprint(r)})
			v = Unknown{Tag: pl.Type}
		}
	}()

	if !pl.Key.IsNull() {
		key = string(pl.Key.Bytes())
	}

	switch pl.Type {
	case native.PayloadTypeString:
		raw := pl.Value.AsString.Bytes()
		if pl.Value.AsString.IsNull() || !utf8.Valid(raw) {
			b.logger.Debug("Undecodable native string payload",
				logging.Field{Key: logging.FieldKey, Value: key})
			return key, Unknown{Tag: pl.Type}
		}
		return key, String(raw)
	case native.PayloadTypeInteger:
		return key, Integer(pl.Value.AsInteger)
	case native.PayloadTypeFloat:
		return key, Float(pl.Value.AsFloat)
	case native.PayloadTypeBoolean:
		return key, Boolean(pl.Value.AsBoolean != 0)
	default:
		b.logger.Debug("Unknown native payload type",
			logging.Field{Key: logging.FieldKey, Value: key},
			logging.Field{Key: logging.FieldTag, Value: uint32(pl.Type)})
		return key, Unknown{Tag: pl.Type}
	}
}
