// Package ingestion wires C2-C7 of the batch-ingestion pipeline: event
// cleaning, the per-type processor registry, scope resolution, the
// cross-service dispatcher, and the batch coordinator that ties them
// together.
package ingestion

import (
	domain "brokle/internal/core/domain/ingestion"
)

// cleanString strips embedded NUL bytes ( ), which Postgres's text
// codec rejects outright and which ClickHouse otherwise stores as silent
// corruption. Scrubbing happens once, recursively, before any processor
// sees the event body (§4.4 step 5).
func cleanString(s string) string {
	if !containsNUL(s) {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != 0 {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

// CleanValue recursively scrubs NUL bytes out of any JSON-decoded value
// tree (map[string]any, []any, string; other types pass through
// unchanged). It is idempotent: CleanValue(CleanValue(x)) == CleanValue(x).
func CleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return cleanString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[cleanString(k)] = CleanValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CleanValue(val)
		}
		return out
	default:
		return t
	}
}

// CleanEvent returns a copy of event with its Body tree scrubbed of NUL
// bytes. The event's ID and Type are left untouched: they are
// SDK/transport-controlled and not candidates for the corruption this
// guards against.
func CleanEvent(event *domain.Event) *domain.Event {
	if event == nil {
		return nil
	}
	cleaned := *event
	if event.Body != nil {
		cleaned.Body = CleanValue(event.Body).(map[string]any)
	}
	return &cleaned
}
