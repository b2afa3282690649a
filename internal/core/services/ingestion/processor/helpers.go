// Package processor implements C3: one Processor per telemetry event type,
// each translating a generic ingestion.Event body into this repo's
// OTEL-shaped observability entities (Span, Score, Log) and upserting it
// through the existing core/services/observability service layer.
package processor

import (
	"encoding/json"
	"time"
)

// str reads a string field from a decoded event body, defaulting to "".
func str(body map[string]any, key string) string {
	if v, ok := body[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// strPtr reads a string field, returning nil when absent or empty so the
// resulting entity field stays nil rather than a pointer to "".
func strPtr(body map[string]any, key string) *string {
	s := str(body, key)
	if s == "" {
		return nil
	}
	return &s
}

// jsonPtr re-marshals a body field (of any shape: object, array, scalar)
// to a compact JSON string pointer, matching the Input/Output column
// convention (stored as opaque JSON text, not a typed column).
func jsonPtr(body map[string]any, key string) *string {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// stringMap flattens a body field expected to be a flat or nested
// attribute bag into ClickHouse's map[string]string attribute columns.
// Nested values are re-encoded as JSON text, following the same
// string-valued-attribute convention the teacher's span service uses for
// brokle.cost.*/gen_ai.usage.* namespaced fields.
func stringMap(body map[string]any, key string) map[string]string {
	v, ok := body[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch t := val.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			if b, err := json.Marshal(t); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

// unixMillisTime reads a millisecond-epoch timestamp field, falling back
// to now when absent or malformed.
func unixMillisTime(body map[string]any, key string) time.Time {
	v, ok := body[key]
	if !ok {
		return time.Now()
	}
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t))
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Now()
}

// mergeAttrs layers src over dst, returning dst unchanged if src is empty.
func mergeAttrs(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
