// Package timeutil normalizes heterogeneous timestamp representations
// into canonical time values.
//
// Stored records may carry timestamps as RFC 3339 strings, Unix seconds,
// Unix milliseconds, already-canonical time values, or malformed leftovers
// from older builds. Normalize classifies the raw value and dispatches
// exhaustively rather than probing shapes; NormalizeOrNow adds the
// current-time fallback tier used at storage-read time so a corrupted
// record never blocks the whole collection from loading.
package timeutil

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Kind classifies a raw persisted timestamp value.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumeric
	KindCanonical
	KindUnknown
)

// secondsThreshold disambiguates Unix-seconds from Unix-milliseconds
// timestamps: values below it are seconds (covers dates through year
// 2286), values at or above it are milliseconds.
const secondsThreshold = 10_000_000_000

// canonicalLayout is the serialized form every timestamp takes once past
// the storage boundary. Millisecond precision, UTC.
const canonicalLayout = "2006-01-02T15:04:05.000Z07:00"

// timeSource is an already-constructed value that can surrender its
// instant, e.g. a typed wrapper around time.Time.
type timeSource interface {
	Time() time.Time
}

// Classify reports which variant the raw value is.
func Classify(raw interface{}) Kind {
	switch v := raw.(type) {
	case nil:
		return KindMissing
	case time.Time:
		return KindCanonical
	case *time.Time:
		if v == nil {
			return KindMissing
		}
		return KindCanonical
	case string:
		return KindString
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumeric
	default:
		if _, ok := raw.(timeSource); ok {
			return KindCanonical
		}
		return KindUnknown
	}
}

// Normalize converts a raw persisted value into a time value. The second
// return is false when the input yields no usable instant; the caller
// decides the fallback.
func Normalize(raw interface{}) (time.Time, bool) {
	switch Classify(raw) {
	case KindMissing, KindUnknown:
		return time.Time{}, false
	case KindCanonical:
		switch v := raw.(type) {
		case time.Time:
			return v, !v.IsZero()
		case *time.Time:
			return *v, !v.IsZero()
		default:
			t := raw.(timeSource).Time()
			return t, !t.IsZero()
		}
	case KindString:
		return Parse(raw.(string))
	case KindNumeric:
		f, ok := toFloat(raw)
		if !ok {
			return time.Time{}, false
		}
		return fromEpoch(f)
	}
	return time.Time{}, false
}

// NormalizeOrNow is the storage-read tier: it substitutes the current
// time whenever normalization yields no value.
func NormalizeOrNow(raw interface{}) time.Time {
	if t, ok := Normalize(raw); ok {
		return t
	}
	return time.Now()
}

// Parse attempts to read a serialized timestamp string. Empty and
// whitespace-only strings yield no value, as do unparsable ones.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format renders the canonical serialized form.
func Format(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}

// fromEpoch converts a numeric timestamp, scaling seconds to
// milliseconds below the threshold. Negative and non-finite values
// yield no value.
func fromEpoch(f float64) (time.Time, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	millis := int64(f)
	if f < secondsThreshold {
		millis = int64(f * 1000)
	}
	return time.UnixMilli(millis).UTC(), true
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
