package processor

import (
	domain "brokle/internal/core/domain/ingestion"
)

// Registry implements domain/ingestion.ProcessorRegistry, routing each
// closed EventType to the one Processor that handles its shape.
type Registry struct {
	byType map[domain.EventType]domain.Processor
}

// NewRegistry builds the C3 registry: one TraceProcessor, one shared
// ObservationProcessor across the six span-shaped event types, one
// ScoreProcessor, and one SdkLogProcessor.
func NewRegistry(traces traceIngester, spans spanStore, scores scoreStore, logs logBatchWriter) *Registry {
	observation := NewObservationProcessor(spans)
	score := NewScoreProcessor(scores)
	sdkLog := NewSdkLogProcessor(logs)
	trace := NewTraceProcessor(traces)

	return &Registry{
		byType: map[domain.EventType]domain.Processor{
			domain.EventTypeTraceCreate:       trace,
			domain.EventTypeObservationCreate: observation,
			domain.EventTypeObservationUpdate: observation,
			domain.EventTypeSpanCreate:        observation,
			domain.EventTypeSpanUpdate:        observation,
			domain.EventTypeGenerationCreate:  observation,
			domain.EventTypeGenerationUpdate:  observation,
			domain.EventTypeEventCreate:       observation,
			domain.EventTypeScoreCreate:       score,
			domain.EventTypeSdkLog:            sdkLog,
		},
	}
}

// ProcessorFor implements domain/ingestion.ProcessorRegistry.
func (r *Registry) ProcessorFor(eventType domain.EventType) (domain.Processor, bool) {
	p, ok := r.byType[eventType]
	return p, ok
}
