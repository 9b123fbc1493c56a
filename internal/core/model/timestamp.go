package model

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. Upstream emits RFC 3339 almost always;
// the remaining layouts cover date-only and zone-less values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp. ok is false for empty or
// unparseable input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKey orders timestamps by calendar time at full precision. Unparseable
// values sort before every valid timestamp, pre-1970 ones included, and tie
// with each other.
type SortKey struct {
	at    time.Time
	valid bool
}

// KeyOf parses s into a SortKey.
func KeyOf(s string) SortKey {
	t, ok := ParseTimestamp(s)
	return SortKey{at: t, valid: ok}
}

// After reports whether k is strictly newer than o.
func (k SortKey) After(o SortKey) bool {
	switch {
	case !k.valid:
		return false
	case !o.valid:
		return true
	default:
		return k.at.After(o.at)
	}
}

// FormatTimestamp renders t the way the API emits timestamps.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
