package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Numeric coerces the loosely-typed values the document store hands back
// (float64 from JSON decoding, int32/int64 from BSON, numeric strings from
// the legacy layout) into a float64.
func Numeric(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseStructured decodes a string-encoded JSON value into its structured
// form. Legacy rows stored objects as serialized JSON strings; on a parse
// failure the raw string is wrapped in a single-field object rather than
// discarded.
func ParseStructured(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{"raw": raw}
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return map[string]any{"raw": raw}
	}
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded
	default:
		// Scalars were never double-encoded on purpose; keep them wrapped so
		// the field stays object-shaped.
		return map[string]any{"raw": decoded}
	}
}

// IsEmpty reports whether a field value counts as missing for required-field
// checks: nil, blank string, or an empty collection.
func IsEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
