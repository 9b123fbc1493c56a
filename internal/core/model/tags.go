package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is the canonical tag list. Upstream sends either a comma separated
// string or an array of strings; both decode to the same trimmed, de-duplicated
// slice so nothing downstream branches on the source shape.
type Tags []string

// NormalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling and the original order.
func NormalizeTags(raw []string) Tags {
	out := make(Tags, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags normalises a comma separated tag string.
func SplitTags(s string) Tags {
	return NormalizeTags(strings.Split(s, ","))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Tags{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = SplitTags(s)
		return nil
	case data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = NormalizeTags(list)
		return nil
	}
	return fmt.Errorf("tags: unsupported JSON value %s", string(data))
}

// MarshalJSON always writes an array, never null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
