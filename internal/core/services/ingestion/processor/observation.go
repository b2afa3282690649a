package processor

import (
	"context"
	"strconv"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
	appErrors "brokle/pkg/errors"
)

// spanStore is the subset of core/services/observability.TraceService this
// processor needs: ingest (create-or-replace, ClickHouse ReplacingMergeTree
// dedups by span_id on merge) and a project-scoped lookup for updates.
type spanStore interface {
	IngestSpan(ctx context.Context, span *observability.Span) error
	GetSpanByProject(ctx context.Context, spanID, projectID string) (*observability.Span, error)
}

// ObservationProcessor implements C3's handler for every span-shaped event
// type: OBSERVATION_CREATE/UPDATE, SPAN_CREATE/UPDATE, GENERATION_CREATE/
// UPDATE, and EVENT_CREATE (a zero-duration span). All six map onto the
// same Span entity; generations additionally carry usage/cost/model
// attributes and events are spans whose start and end time coincide.
type ObservationProcessor struct {
	spans spanStore
}

// NewObservationProcessor builds an ObservationProcessor shared by every
// span-shaped event type.
func NewObservationProcessor(spans spanStore) *ObservationProcessor {
	return &ObservationProcessor{spans: spans}
}

// Process implements domain/ingestion.Processor.
func (p *ObservationProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	switch event.Type {
	case domain.EventTypeObservationCreate, domain.EventTypeSpanCreate,
		domain.EventTypeGenerationCreate, domain.EventTypeEventCreate:
		return p.create(ctx, scope, event)
	case domain.EventTypeObservationUpdate, domain.EventTypeSpanUpdate, domain.EventTypeGenerationUpdate:
		return p.update(ctx, scope, event)
	default:
		return nil, appErrors.NewValidationError("unsupported event type for observation processor", string(event.Type))
	}
}

func (p *ObservationProcessor) create(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	body := event.Body
	spanID := toSpanID(event.ID)
	projectID := scope.ProjectID.String()

	span := fromBody(body, spanID, projectID)
	if event.Type == domain.EventTypeGenerationCreate {
		applyGenerationFields(span, body)
	}
	if event.Type == domain.EventTypeEventCreate && span.EndTime == nil {
		end := span.StartTime
		span.EndTime = &end
	}

	if err := p.spans.IngestSpan(ctx, span); err != nil {
		return nil, err
	}

	return &domain.ProcessedResult{EventType: event.Type, ID: spanID}, nil
}

func (p *ObservationProcessor) update(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	body := event.Body
	spanID := toSpanID(event.ID)
	projectID := scope.ProjectID.String()

	existing, err := p.spans.GetSpanByProject(ctx, spanID, projectID)
	if err != nil {
		return nil, err
	}

	mergeBodyInto(existing, body)
	if event.Type == domain.EventTypeGenerationUpdate {
		applyGenerationFields(existing, body)
	}

	if err := p.spans.IngestSpan(ctx, existing); err != nil {
		return nil, err
	}

	return &domain.ProcessedResult{EventType: event.Type, ID: spanID}, nil
}

// fromBody builds a fresh Span from a CREATE event body.
func fromBody(body map[string]any, spanID, projectID string) *observability.Span {
	span := &observability.Span{
		TraceID:            toTraceID(firstNonEmpty(str(body, "traceId"), spanID)),
		SpanID:             spanID,
		ProjectID:          projectID,
		SpanName:           firstNonEmpty(str(body, "name"), "observation"),
		StartTime:          unixMillisTime(body, "startTime"),
		StatusMessage:      strPtr(body, "statusMessage"),
		Input:              jsonPtr(body, "input"),
		Output:             jsonPtr(body, "output"),
		ResourceAttributes: stringMap(body, "metadata"),
		SpanAttributes:     map[string]string{},
		Version:            strPtr(body, "version"),
	}
	if v := str(body, "parentObservationId"); v != "" {
		parent := toSpanID(v)
		span.ParentSpanID = &parent
	}
	if v, ok := body["endTime"]; ok && v != nil {
		end := unixMillisTime(body, "endTime")
		span.EndTime = &end
	}
	if level := str(body, "level"); level != "" {
		span.SpanAttributes["brokle.span.level"] = level
		if level == "ERROR" {
			span.StatusCode = observability.StatusCodeError
			span.HasError = true
		}
	}
	if t := str(body, "type"); t != "" {
		span.SpanAttributes["brokle.span.type"] = t
	}
	span.CalculateDuration()
	return span
}

// mergeBodyInto layers an UPDATE event body's present fields onto an
// existing span, leaving fields the update omits untouched.
func mergeBodyInto(span *observability.Span, body map[string]any) {
	if v := str(body, "name"); v != "" {
		span.SpanName = v
	}
	if v, ok := body["endTime"]; ok && v != nil {
		end := unixMillisTime(body, "endTime")
		span.EndTime = &end
	}
	if v := strPtr(body, "statusMessage"); v != nil {
		span.StatusMessage = v
	}
	if v := jsonPtr(body, "input"); v != nil {
		span.Input = v
	}
	if v := jsonPtr(body, "output"); v != nil {
		span.Output = v
	}
	span.ResourceAttributes = mergeAttrs(span.ResourceAttributes, stringMap(body, "metadata"))
	if level := str(body, "level"); level != "" {
		span.SpanAttributes["brokle.span.level"] = level
		if level == "ERROR" {
			span.StatusCode = observability.StatusCodeError
			span.HasError = true
		}
	}
	span.CalculateDuration()
}

// applyGenerationFields layers GENERATION_*-only fields (model, usage,
// cost) onto a span, formatted the way the teacher's SetSpanCost/
// SetSpanUsage helpers do: as decimal strings under gen_ai.*/brokle.cost.*
// namespaced attributes.
func applyGenerationFields(span *observability.Span, body map[string]any) {
	if span.SpanAttributes == nil {
		span.SpanAttributes = map[string]string{}
	}
	if v := str(body, "model"); v != "" {
		span.SpanAttributes["gen_ai.request.model"] = v
		span.ModelName = strPtr(body, "model")
	}
	if usage, ok := body["usage"].(map[string]any); ok {
		if v, ok := usage["input"]; ok {
			span.SpanAttributes["gen_ai.usage.input_tokens"] = toJSONNumberString(v)
		}
		if v, ok := usage["output"]; ok {
			span.SpanAttributes["gen_ai.usage.output_tokens"] = toJSONNumberString(v)
		}
	}
}

func toJSONNumberString(v any) string {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return ""
	}
}
