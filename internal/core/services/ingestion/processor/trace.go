package processor

import (
	"context"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
	appErrors "brokle/pkg/errors"
)

// traceIngester is the subset of core/services/observability.TraceService
// this processor depends on; narrowed to ease faking in tests.
type traceIngester interface {
	IngestSpan(ctx context.Context, span *observability.Span) error
}

// TraceProcessor implements C3's TRACE_CREATE handler. A "trace" in this
// repo's OTEL-native schema has no row of its own: it is the root span of
// its trace ID (parent_span_id IS NULL), aggregated on read. Creating a
// trace is therefore ingesting that root span.
type TraceProcessor struct {
	traces traceIngester
}

// NewTraceProcessor builds a TraceProcessor backed by the shared
// observability trace service.
func NewTraceProcessor(traces traceIngester) *TraceProcessor {
	return &TraceProcessor{traces: traces}
}

// Process implements domain/ingestion.Processor.
func (p *TraceProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	if event.Type != domain.EventTypeTraceCreate {
		return nil, appErrors.NewValidationError("unsupported event type for trace processor", string(event.Type))
	}

	body := event.Body
	traceID := toTraceID(firstNonEmpty(str(body, "id"), event.ID))

	span := &observability.Span{
		TraceID:            traceID,
		SpanID:             toSpanID(event.ID),
		ProjectID:          scope.ProjectID.String(),
		SpanName:           firstNonEmpty(str(body, "name"), "trace"),
		StartTime:          unixMillisTime(body, "timestamp"),
		Input:              jsonPtr(body, "input"),
		Output:             jsonPtr(body, "output"),
		ResourceAttributes: stringMap(body, "metadata"),
		SpanAttributes:     traceAttributes(body),
	}

	if err := p.traces.IngestSpan(ctx, span); err != nil {
		return nil, err
	}

	return &domain.ProcessedResult{EventType: domain.EventTypeTraceCreate, ID: traceID}, nil
}

// traceAttributes maps trace-level SDK fields with no dedicated Span
// column (userId, sessionId, tags, public/release/version) into the
// brokle.* namespaced span_attributes bag, following the convention the
// teacher's span service documents for brokle.cost.*/gen_ai.usage.*.
func traceAttributes(body map[string]any) map[string]string {
	attrs := map[string]string{}
	if v := str(body, "userId"); v != "" {
		attrs["brokle.trace.user_id"] = v
	}
	if v := str(body, "sessionId"); v != "" {
		attrs["brokle.trace.session_id"] = v
	}
	if v := str(body, "release"); v != "" {
		attrs["brokle.trace.release"] = v
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
