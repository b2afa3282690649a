package processor

import (
	"context"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
	appErrors "brokle/pkg/errors"
)

// scoreStore is the subset of core/services/observability.ScoreService this
// processor depends on.
type scoreStore interface {
	CreateScore(ctx context.Context, score *observability.Score) error
	UpdateScore(ctx context.Context, score *observability.Score) error
	GetScoreByID(ctx context.Context, id string) (*observability.Score, error)
}

// ScoreProcessor implements C3's SCORE_CREATE handler. Scores have no
// dedicated update event type in the SDK protocol; re-ingesting the same
// event ID is treated as an upsert so redelivery stays idempotent.
type ScoreProcessor struct {
	scores scoreStore
}

// NewScoreProcessor builds a ScoreProcessor backed by the shared
// observability score service.
func NewScoreProcessor(scores scoreStore) *ScoreProcessor {
	return &ScoreProcessor{scores: scores}
}

// Process implements domain/ingestion.Processor.
func (p *ScoreProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	if event.Type != domain.EventTypeScoreCreate {
		return nil, appErrors.NewValidationError("unsupported event type for score processor", string(event.Type))
	}

	body := event.Body
	score := &observability.Score{
		ID:        event.ID,
		ProjectID: scope.ProjectID.String(),
		TraceID:   toTraceID(str(body, "traceId")),
		SpanID:    toSpanID(firstNonEmpty(str(body, "observationId"), str(body, "traceId"))),
		Name:      str(body, "name"),
		DataType:  firstNonEmpty(str(body, "dataType"), observability.ScoreDataTypeNumeric),
		Source:    firstNonEmpty(str(body, "source"), observability.ScoreSourceAPI),
		Comment:   strPtr(body, "comment"),
	}

	switch score.DataType {
	case observability.ScoreDataTypeCategorical:
		score.StringValue = strPtr(body, "value")
	default:
		if v, ok := body["value"].(float64); ok {
			score.Value = &v
		}
	}

	existing, err := p.scores.GetScoreByID(ctx, event.ID)
	switch {
	case err == nil && existing != nil:
		score.Timestamp = existing.Timestamp
		if err := p.scores.UpdateScore(ctx, score); err != nil {
			return nil, err
		}
	case err != nil && appErrors.IsNotFound(err):
		if err := p.scores.CreateScore(ctx, score); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &domain.ProcessedResult{EventType: domain.EventTypeScoreCreate, ID: event.ID}, nil
}
