package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
)

type fakeLogWriter struct {
	lastBatch []*observability.Log
	err       error
}

func (f *fakeLogWriter) CreateLogBatch(ctx context.Context, logs []*observability.Log) error {
	f.lastBatch = logs
	return f.err
}

func TestSdkLogProcessor_Process_MapsSeverity(t *testing.T) {
	fake := &fakeLogWriter{}
	p := NewSdkLogProcessor(fake)

	event := &domain.Event{
		ID:   "log-1",
		Type: domain.EventTypeSdkLog,
		Body: map[string]any{
			"traceId":       "trace-1",
			"observationId": "obs-1",
			"level":         "ERROR",
			"message":       "provider timeout",
		},
	}

	result, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.Len(t, fake.lastBatch, 1)
	entry := fake.lastBatch[0]
	assert.Equal(t, observability.SeverityTextError, entry.SeverityText)
	assert.Equal(t, int32(observability.SeverityNumberError), entry.SeverityNumber)
	assert.Equal(t, "provider timeout", entry.Body)
	assert.Equal(t, "log-1", result.ID)
}

func TestSdkLogProcessor_Process_DefaultsToInfo(t *testing.T) {
	fake := &fakeLogWriter{}
	p := NewSdkLogProcessor(fake)

	event := &domain.Event{ID: "log-2", Type: domain.EventTypeSdkLog, Body: map[string]any{"message": "started"}}

	_, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	assert.Equal(t, observability.SeverityTextInfo, fake.lastBatch[0].SeverityText)
}

func TestSdkLogProcessor_RejectsWrongEventType(t *testing.T) {
	p := NewSdkLogProcessor(&fakeLogWriter{})
	_, err := p.Process(context.Background(), testScope(), &domain.Event{Type: domain.EventTypeTraceCreate})
	assert.Error(t, err)
}
