package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "brokle/internal/core/domain/ingestion"
)

func TestCleanValue_StripsNULFromStrings(t *testing.T) {
	got := CleanValue("hello\x00world")
	assert.Equal(t, "helloworld", got)
}

func TestCleanValue_RecursesThroughMapsAndSlices(t *testing.T) {
	in := map[string]any{
		"a": "ok\x00",
		"b": []any{"x\x00y", map[string]any{"c\x00": "d\x00"}},
		"n": 42,
	}

	got := CleanValue(in).(map[string]any)

	assert.Equal(t, "ok", got["a"])
	list := got["b"].([]any)
	assert.Equal(t, "xy", list[0])
	nested := list[1].(map[string]any)
	assert.Equal(t, "d", nested["c"])
	assert.Equal(t, 42, got["n"])
}

func TestCleanValue_Idempotent(t *testing.T) {
	in := map[string]any{"a": "x\x00y\x00z"}
	once := CleanValue(in)
	twice := CleanValue(once)
	assert.Equal(t, once, twice)
}

func TestCleanEvent_ScrubsBodyOnly(t *testing.T) {
	event := &domain.Event{
		ID:   "evt\x00_1",
		Type: domain.EventTypeTraceCreate,
		Body: map[string]any{"name": "trace\x00name"},
	}

	cleaned := CleanEvent(event)

	assert.Equal(t, "evt\x00_1", cleaned.ID, "event ID is left untouched by the scrubber")
	assert.Equal(t, "tracename", cleaned.Body["name"])
}

func TestCleanEvent_Nil(t *testing.T) {
	assert.Nil(t, CleanEvent(nil))
}
