package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
	"brokle/pkg/ulid"
)

type fakeTraceIngester struct {
	lastSpan *observability.Span
	err      error
}

func (f *fakeTraceIngester) IngestSpan(ctx context.Context, span *observability.Span) error {
	f.lastSpan = span
	return f.err
}

func testScope() *domain.Scope {
	return &domain.Scope{ProjectID: ulid.New()}
}

func TestTraceProcessor_Process_IngestsRootSpan(t *testing.T) {
	fake := &fakeTraceIngester{}
	p := NewTraceProcessor(fake)
	scope := testScope()

	event := &domain.Event{
		ID:   "trace-abc-123",
		Type: domain.EventTypeTraceCreate,
		Body: map[string]any{
			"id":        "trace-abc-123",
			"name":      "checkout",
			"userId":    "user-1",
			"sessionId": "sess-1",
		},
	}

	result, err := p.Process(context.Background(), scope, event)

	require.NoError(t, err)
	require.NotNil(t, fake.lastSpan)
	assert.Equal(t, "checkout", fake.lastSpan.SpanName)
	assert.Nil(t, fake.lastSpan.ParentSpanID)
	assert.Len(t, fake.lastSpan.TraceID, 32)
	assert.Len(t, fake.lastSpan.SpanID, 16)
	assert.Equal(t, "user-1", fake.lastSpan.SpanAttributes["brokle.trace.user_id"])
	assert.Equal(t, domain.EventTypeTraceCreate, result.EventType)
}

func TestTraceProcessor_Process_RejectsWrongEventType(t *testing.T) {
	p := NewTraceProcessor(&fakeTraceIngester{})
	_, err := p.Process(context.Background(), testScope(), &domain.Event{Type: domain.EventTypeScoreCreate})
	assert.Error(t, err)
}

func TestTraceProcessor_Process_PropagatesIngestError(t *testing.T) {
	fake := &fakeTraceIngester{err: assertErr{}}
	p := NewTraceProcessor(fake)
	_, err := p.Process(context.Background(), testScope(), &domain.Event{ID: "t1", Type: domain.EventTypeTraceCreate, Body: map[string]any{}})
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
