package processor

import (
	"crypto/sha1"
	"encoding/hex"
)

// toHexID deterministically folds an arbitrary SDK-supplied identifier (a
// ULID, a UUID, a free-form string) into a fixed-width lowercase hex
// string of length n, the shape the OTEL-derived span/trace columns
// require. Folding through SHA-1 rather than truncating the raw string
// keeps the mapping collision-resistant and stable across retries, so the
// same logical ID always upserts the same row.
func toHexID(id string, n int) string {
	if isHex(id, n) {
		return id
	}
	sum := sha1.Sum([]byte(id))
	full := hex.EncodeToString(sum[:])
	if len(full) < n {
		return full
	}
	return full[:n]
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// toSpanID maps an event/observation ID to a 16-hex-char OTEL span ID.
func toSpanID(id string) string { return toHexID(id, 16) }

// toTraceID maps an event/trace ID to a 32-hex-char OTEL trace ID.
func toTraceID(id string) string { return toHexID(id, 32) }
