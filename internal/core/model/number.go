package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric value. Decoding never fails: numbers and numeric
// strings are Valid, anything else (garbage strings, booleans, objects) is not.
type Number struct {
	Value float64
	Valid bool
}

// Int returns a valid Number holding n.
func Int(n int64) *Number {
	return &Number{Value: float64(n), Valid: true}
}

// Float returns a Number for f; NaN and infinities are not Valid.
func Float(f float64) *Number {
	return &Number{Value: f, Valid: !math.IsNaN(f) && !math.IsInf(f, 0)}
}

// ParseNumber reads a numeric string leniently.
func ParseNumber(s string) *Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return &Number{}
	}
	return Float(f)
}

// Finite reports whether the number can be used arithmetically.
func (n *Number) Finite() bool {
	return n != nil && n.Valid && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

// Truncated returns the value truncated toward zero. ok is false when the
// number is absent, invalid or does not fit an int64.
func (n *Number) Truncated() (int64, bool) {
	if !n.Finite() {
		return 0, false
	}
	t := math.Trunc(n.Value)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, false
	}
	return int64(t), true
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*n = *ParseNumber(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	*n = *Float(f)
	return nil
}

// MarshalJSON writes valid numbers as JSON numbers and invalid ones as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}
