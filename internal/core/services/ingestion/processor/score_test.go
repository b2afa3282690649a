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

type fakeScoreStore struct {
	existing  *observability.Score
	getErr    error
	created   *observability.Score
	updated   *observability.Score
	createErr error
	updateErr error
}

func (f *fakeScoreStore) CreateScore(ctx context.Context, score *observability.Score) error {
	f.created = score
	return f.createErr
}

func (f *fakeScoreStore) UpdateScore(ctx context.Context, score *observability.Score) error {
	f.updated = score
	return f.updateErr
}

func (f *fakeScoreStore) GetScoreByID(ctx context.Context, id string) (*observability.Score, error) {
	return f.existing, f.getErr
}

func TestScoreProcessor_Create_Numeric(t *testing.T) {
	fake := &fakeScoreStore{getErr: appErrors.NewNotFoundError("score")}
	p := NewScoreProcessor(fake)

	event := &domain.Event{
		ID:   "score-1",
		Type: domain.EventTypeScoreCreate,
		Body: map[string]any{
			"traceId": "trace-1",
			"name":    "relevance",
			"value":   float64(0.8),
		},
	}

	result, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.NotNil(t, fake.created)
	assert.Equal(t, "relevance", fake.created.Name)
	assert.Equal(t, observability.ScoreDataTypeNumeric, fake.created.DataType)
	require.NotNil(t, fake.created.Value)
	assert.Equal(t, 0.8, *fake.created.Value)
	assert.Equal(t, "score-1", result.ID)
}

func TestScoreProcessor_Create_Categorical(t *testing.T) {
	fake := &fakeScoreStore{getErr: appErrors.NewNotFoundError("score")}
	p := NewScoreProcessor(fake)

	event := &domain.Event{
		ID:   "score-2",
		Type: domain.EventTypeScoreCreate,
		Body: map[string]any{
			"traceId":  "trace-1",
			"name":     "sentiment",
			"dataType": observability.ScoreDataTypeCategorical,
			"value":    "positive",
		},
	}

	_, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	require.NotNil(t, fake.created.StringValue)
	assert.Equal(t, "positive", *fake.created.StringValue)
	assert.Nil(t, fake.created.Value)
}

func TestScoreProcessor_Redelivery_Updates(t *testing.T) {
	existing := &observability.Score{ID: "score-1"}
	fake := &fakeScoreStore{existing: existing}
	p := NewScoreProcessor(fake)

	event := &domain.Event{
		ID:   "score-1",
		Type: domain.EventTypeScoreCreate,
		Body: map[string]any{"traceId": "trace-1", "name": "relevance", "value": float64(0.9)},
	}

	_, err := p.Process(context.Background(), testScope(), event)

	require.NoError(t, err)
	assert.Nil(t, fake.created, "redelivery of a known score ID updates instead of creating")
	require.NotNil(t, fake.updated)
}

func TestScoreProcessor_RejectsWrongEventType(t *testing.T) {
	p := NewScoreProcessor(&fakeScoreStore{})
	_, err := p.Process(context.Background(), testScope(), &domain.Event{Type: domain.EventTypeTraceCreate})
	assert.Error(t, err)
}
