package logbridge

import (
	"math"
	"time"

	"fjacquet/freelog/pkg/native"
)

// ToNativeTimestamp converts t to UTC seconds since the epoch.
func ToNativeTimestamp(t time.Time) native.Timestamp {
	return native.Timestamp(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
}

// FromNativeTimestamp converts UTC seconds since the epoch to a UTC time,
// rounded to the microsecond. NaN and infinities yield the zero time.
func FromNativeTimestamp(ts native.Timestamp) time.Time {
	f := float64(ts)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}
	}
	micros := math.Round(f * 1e6)
	if micros >= math.MaxInt64 || micros < math.MinInt64 {
		return time.Time{}
	}
	return time.UnixMicro(int64(micros)).UTC()
}
