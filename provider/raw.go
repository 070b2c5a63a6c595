package provider

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

// Field helpers for raw provider payloads. Payloads arrive as decoded JSON,
// so numbers are float64 and nested objects are map[string]any; the helpers
// absorb those shapes so mappers stay readable.

// StringField returns a string field, or "" when absent or not a string.
func StringField(data interfaces.RawData, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// IntField returns an integer field, accepting JSON numbers and numeric
// strings.
func IntField(data interfaces.RawData, key string) (int, bool) {
	switch v := data[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// StringSlice returns a list field with every element rendered as a string.
func StringSlice(data interfaces.RawData, key string) []string {
	items, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// MapField returns a nested object field, or nil when absent.
func MapField(data interfaces.RawData, key string) map[string]any {
	if v, ok := data[key].(map[string]any); ok {
		return v
	}
	return nil
}

// TimeField parses an RFC 3339 timestamp field.
func TimeField(data interfaces.RawData, key string) (time.Time, bool) {
	raw := StringField(data, key)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
