package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "brokle/pkg/errors"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
)

type fakeSpanStore struct {
	lastIngested *observability.Span
	getResult    *observability.Span
	getErr       error
	ingestErr    error
}

func (f *fakeSpanStore) IngestSpan(ctx context.Context, span *observability.Span) error {
	f.lastIngested = span
	return f.ingestErr
}

func (f *fakeSpanStore) GetSpanByProject(ctx context.Context, spanID, projectID string) (*observability.Span, error) {
	return f.getResult, f.getErr
}

func TestObservationProcessor_Create_Span(t *testing.T) {
	fake := &fakeSpanStore{}
	p := NewObservationProcessor(fake)
	scope := testScope()

	event := &domain.Event{
		ID:   "obs-1",
		Type: domain.EventTypeSpanCreate,
		Body: map[string]any{
			"traceId":    "trace-1",
			"name":       "fetch-data",
			"startTime":  float64(1000),
			"metadata":   map[string]any{"k": "v"},
			"level":      "DEFAULT",
		},
	}

	result, err := p.Process(context.Background(), scope, event)

	require.NoError(t, err)
	require.NotNil(t, fake.lastIngested)
	assert.Equal(t, "fetch-data", fake.lastIngested.SpanName)
	assert.Len(t, fake.lastIngested.SpanID, 16)
	assert.Len(t, fake.lastIngested.TraceID, 32)
	assert.Equal(t, domain.EventTypeSpanCreate, result.EventType)
}

func TestObservationProcessor_Create_Generation_SetsUsageAttributes(t *testing.T) {
	fake := &fakeSpanStore{}
	p := NewObservationProcessor(fake)

	event := &domain.Event{
		ID:   "gen-1",
		Type: domain.EventTypeGenerationCreate,
		Body: map[string]any{
			"traceId": "trace-1",
			"name":    "llm-call",
			"model":   "gpt-4",
			"usage":   map[string]any{"input": float64(10), "output": float64(20)},
		},
	}

	_, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.NotNil(t, fake.lastIngested)
	assert.Equal(t, "gpt-4", fake.lastIngested.SpanAttributes["gen_ai.request.model"])
	assert.Equal(t, "10", fake.lastIngested.SpanAttributes["gen_ai.usage.input_tokens"])
	assert.Equal(t, "20", fake.lastIngested.SpanAttributes["gen_ai.usage.output_tokens"])
}

func TestObservationProcessor_Create_EventCreate_SetsZeroDuration(t *testing.T) {
	fake := &fakeSpanStore{}
	p := NewObservationProcessor(fake)

	event := &domain.Event{
		ID:   "evt-1",
		Type: domain.EventTypeEventCreate,
		Body: map[string]any{"traceId": "trace-1", "name": "log-point", "startTime": float64(5000)},
	}

	_, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.NotNil(t, fake.lastIngested.EndTime)
	assert.Equal(t, fake.lastIngested.StartTime, *fake.lastIngested.EndTime)
}

func TestObservationProcessor_Update_MergesOntoExisting(t *testing.T) {
	existing := &observability.Span{
		TraceID:   toTraceID("trace-1"),
		SpanID:    toSpanID("obs-1"),
		ProjectID: testScope().ProjectID.String(),
		SpanName:  "original-name",
	}
	fake := &fakeSpanStore{getResult: existing}
	p := NewObservationProcessor(fake)

	event := &domain.Event{
		ID:   "obs-1",
		Type: domain.EventTypeSpanUpdate,
		Body: map[string]any{"output": map[string]any{"result": "ok"}},
	}

	result, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.NotNil(t, fake.lastIngested)
	assert.Equal(t, "original-name", fake.lastIngested.SpanName, "update without a name leaves the existing name untouched")
	require.NotNil(t, fake.lastIngested.Output)
	assert.Equal(t, domain.EventTypeSpanUpdate, result.EventType)
}

func TestObservationProcessor_Update_PropagatesNotFound(t *testing.T) {
	fake := &fakeSpanStore{getErr: appErrors.NewNotFoundError("span")}
	p := NewObservationProcessor(fake)

	_, err := p.Process(context.Background(), testScope(), &domain.Event{ID: "missing", Type: domain.EventTypeSpanUpdate, Body: map[string]any{}})

	assert.True(t, appErrors.IsNotFound(err))
}

func TestObservationProcessor_Process_RejectsUnknownType(t *testing.T) {
	p := NewObservationProcessor(&fakeSpanStore{})
	_, err := p.Process(context.Background(), testScope(), &domain.Event{Type: domain.EventTypeSdkLog})
	assert.Error(t, err)
}
