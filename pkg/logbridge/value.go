package logbridge

import (
	"fmt"
	"math"
	"strconv"

	"fjacquet/freelog/internal/logerror"
	"fjacquet/freelog/pkg/native"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is a payload value. The variants are String, Integer, Float and
// Boolean. Unknown is only ever produced when decoding a native payload the
// bridge cannot represent.
type Value interface {
	Kind() Kind
	// Any returns the value as a plain Go value, nil for Unknown.
	Any() any
	String() string
	isValue()
}

// String is a text payload value.
type String string

// Integer is a signed integer payload value.
type Integer int64

// Float is a floating-point payload value.
type Float float64

// Boolean is a boolean payload value.
type Boolean bool

// Unknown stands for a native payload whose type tag or content could not be
// decoded. Tag is the native type tag that was received.
type Unknown struct {
	Tag native.PayloadType
}

func (String) Kind() Kind  { return KindString }
func (Integer) Kind() Kind { return KindInteger }
func (Float) Kind() Kind   { return KindFloat }
func (Boolean) Kind() Kind { return KindBoolean }
func (Unknown) Kind() Kind { return KindUnknown }

func (v String) Any() any  { return string(v) }
func (v Integer) Any() any { return int64(v) }
func (v Float) Any() any   { return float64(v) }
func (v Boolean) Any() any { return bool(v) }
func (Unknown) Any() any   { return nil }

func (v String) String() string  { return string(v) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v Unknown) String() string { return fmt.Sprintf("<unknown payload type %d>", v.Tag) }

func (String) isValue()  {}
func (Integer) isValue() {}
func (Float) isValue()   {}
func (Boolean) isValue() {}
func (Unknown) isValue() {}

// Present reports whether v holds a decodable value.
func Present(v Value) bool {
	return v != nil && v.Kind() != KindUnknown
}

// ValueOf converts a Go value into a Value. Strings, byte slices, every
// integer and float type, booleans, errors and fmt.Stringer are accepted.
// Anything else, including unsigned integers that overflow int64, is reported
// as a *logerror.ValueError matching ErrContractViolation.
func ValueOf(key string, v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		if x.Kind() != KindUnknown {
			return x, nil
		}
	case string:
		return String(x), nil
	case []byte:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case int:
		return Integer(x), nil
	case int8:
		return Integer(x), nil
	case int16:
		return Integer(x), nil
	case int32:
		return Integer(x), nil
	case int64:
		return Integer(x), nil
	case uint:
		return unsignedValue(key, uint64(x))
	case uint8:
		return Integer(x), nil
	case uint16:
		return Integer(x), nil
	case uint32:
		return Integer(x), nil
	case uint64:
		return unsignedValue(key, x)
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case error:
		return String(x.Error()), nil
	case fmt.Stringer:
		return String(x.String()), nil
	}
	return nil, &logerror.ValueError{Key: key, Type: fmt.Sprintf("%T", v)}
}

func unsignedValue(key string, x uint64) (Value, error) {
	if x > math.MaxInt64 {
		return nil, &logerror.ValueError{Key: key, Type: "uint64", Reason: "overflows a native integer"}
	}
	return Integer(x), nil
}
