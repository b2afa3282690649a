package processor

import (
	"context"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/core/domain/observability"
	appErrors "brokle/pkg/errors"
)

// logBatchWriter is the subset of core/services/observability.LogsService
// this processor depends on.
type logBatchWriter interface {
	CreateLogBatch(ctx context.Context, logs []*observability.Log) error
}

// SdkLogProcessor implements C3's SDK_LOG handler. The logs schema has no
// per-row unique key or update path, so redelivery of the same SDK_LOG event
// appends a duplicate row rather than upserting; this is a known, accepted
// gap for this event type only (§4.4 idempotency applies to traces,
// observations, and scores).
type SdkLogProcessor struct {
	logs logBatchWriter
}

// NewSdkLogProcessor builds an SdkLogProcessor backed by the shared
// observability logs service.
func NewSdkLogProcessor(logs logBatchWriter) *SdkLogProcessor {
	return &SdkLogProcessor{logs: logs}
}

// Process implements domain/ingestion.Processor.
func (p *SdkLogProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	if event.Type != domain.EventTypeSdkLog {
		return nil, appErrors.NewValidationError("unsupported event type for sdk log processor", string(event.Type))
	}

	body := event.Body
	severityText := severityTextFor(str(body, "level"))
	ts := unixMillisTime(body, "timestamp")

	entry := &observability.Log{
		Timestamp:          ts,
		ObservedTimestamp:  ts,
		TraceID:            toTraceID(str(body, "traceId")),
		SpanID:             toSpanID(str(body, "observationId")),
		SeverityText:       severityText,
		SeverityNumber:     severityNumberFor(severityText),
		Body:               str(body, "message"),
		ResourceAttributes: stringMap(body, "metadata"),
		ServiceName:        "brokle-sdk",
		ProjectID:          scope.ProjectID.String(),
	}

	if err := p.logs.CreateLogBatch(ctx, []*observability.Log{entry}); err != nil {
		return nil, err
	}

	return &domain.ProcessedResult{EventType: domain.EventTypeSdkLog, ID: event.ID}, nil
}

func severityTextFor(level string) string {
	switch level {
	case observability.SeverityTextTrace, observability.SeverityTextDebug,
		observability.SeverityTextWarn, observability.SeverityTextError, observability.SeverityTextFatal:
		return level
	default:
		return observability.SeverityTextInfo
	}
}

func severityNumberFor(text string) int32 {
	switch text {
	case observability.SeverityTextTrace:
		return observability.SeverityNumberTrace
	case observability.SeverityTextDebug:
		return observability.SeverityNumberDebug
	case observability.SeverityTextWarn:
		return observability.SeverityNumberWarn
	case observability.SeverityTextError:
		return observability.SeverityNumberError
	case observability.SeverityTextFatal:
		return observability.SeverityNumberFatal
	default:
		return observability.SeverityNumberInfo
	}
}
