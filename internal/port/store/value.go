package store

import (
	"encoding/json"
	"math"
	"time"
)

// GetString returns the string field key, or "" when missing or not a string.
func (v Value) GetString(key string) string {
	s, _ := v[key].(string)
	return s
}

// GetFloat returns the numeric field key as float64. Backends decode numbers
// differently (JSON gives float64, BSON gives int32/int64/float64).
func (v Value) GetFloat(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// GetInt returns the numeric field key as int, rounding floats.
func (v Value) GetInt(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i)
		}
	}
	return int(math.Round(v.GetFloat(key)))
}

// GetInt64 returns the numeric field key as int64.
func (v Value) GetInt64(key string) int64 {
	switch n := v[key].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i
		}
	}
	return int64(math.Round(v.GetFloat(key)))
}

// GetBool returns the boolean field key.
func (v Value) GetBool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// GetTime decodes a field written by Millis. Zero means missing.
func (v Value) GetTime(key string) time.Time {
	ms := v.GetInt64(key)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Millis encodes t as epoch milliseconds, the timestamp format of every record.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
