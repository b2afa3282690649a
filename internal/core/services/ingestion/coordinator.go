package ingestion

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/telemetry"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/retry"
)

// Coordinator implements domain/ingestion.Coordinator (C4): the 11-step
// per-batch pipeline of spec §4.4 — validate, clean, audit, order, dispatch
// with retry, fan out trace-upserts, and aggregate a partial-success result.
type Coordinator struct {
	registry   domain.ProcessorRegistry
	audit      domain.EventAuditSink
	dispatcher domain.Dispatcher
	logger     *logrus.Logger
}

// NewCoordinator builds a Coordinator wired to the processor registry, the
// raw-event audit sink, and the cross-service dispatcher.
func NewCoordinator(registry domain.ProcessorRegistry, audit domain.EventAuditSink, dispatcher domain.Dispatcher, logger *logrus.Logger) *Coordinator {
	return &Coordinator{registry: registry, audit: audit, dispatcher: dispatcher, logger: logger}
}

// ProcessBatch implements domain/ingestion.Coordinator.
func (c *Coordinator) ProcessBatch(ctx context.Context, scope *domain.Scope, apiKey *domain.OrgEnrichedAPIKey, envelope *domain.BatchEnvelope) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Successes: make([]domain.ItemStatus, 0, len(envelope.Batch)),
		Errors:    make([]domain.ItemStatus, 0),
	}

	// Step 4: per-event validation drops unknown/malformed events into the
	// error slot before anything else runs on them.
	valid := make([]*domain.Event, 0, len(envelope.Batch))
	for _, event := range envelope.Batch {
		if err := c.validate(event); err != nil {
			result.Errors = append(result.Errors, errorItem(eventID(event), err))
			continue
		}
		valid = append(valid, event)
	}

	// Step 5: NUL-byte scrub, re-validated by construction (CleanEvent only
	// removes bytes, never changes shape).
	cleaned := make([]*domain.Event, len(valid))
	for i, event := range valid {
		cleaned[i] = CleanEvent(event)
	}

	// Step 6: persist the raw cleaned event before typed processing, so a
	// later processing failure never loses the original payload.
	audited := make([]*domain.Event, 0, len(cleaned))
	for _, event := range cleaned {
		if err := c.audit.PersistRawEvent(ctx, &domain.EventAudit{
			EventID:   event.ID,
			ProjectID: scope.ProjectID,
			Type:      event.Type,
			Body:      event.Body,
		}); err != nil {
			result.Errors = append(result.Errors, errorItem(eventID(event), err))
			continue
		}
		audited = append(audited, event)
	}

	// Step 7: stable partition, creates before *_UPDATE events.
	ordered := sortEvents(audited)

	// Step 8-9: dispatch each event with bounded retry, collecting partial
	// success. Sequential by design (§5): ordering and retry accounting
	// within one batch must stay observable and simple.
	var traceCreates []*domain.ProcessedResult
	for _, event := range ordered {
		processed, err := c.processOne(ctx, scope, apiKey, event)
		if err != nil {
			result.Errors = append(result.Errors, errorItem(event.ID, err))
			continue
		}
		result.Successes = append(result.Successes, domain.ItemStatus{ID: event.ID, Status: 201})
		if processed.EventType == domain.EventTypeTraceCreate {
			traceCreates = append(traceCreates, processed)
		}
	}

	// Step 10: fan out trace-upserts, best-effort, never fails the batch.
	if len(traceCreates) > 0 {
		c.dispatcher.DispatchTraceUpserts(ctx, scope.ProjectID.String(), traceCreates)
	}

	return result, nil
}

// validate re-checks an event's shape before it enters the pipeline: a
// known event type and a non-nil body. Processors re-validate their
// type-specific shape on top of this.
func (c *Coordinator) validate(event *domain.Event) error {
	if event == nil {
		return appErrors.NewBadRequestError("event is required", "")
	}
	if !event.Type.IsValid() {
		return appErrors.NewBadRequestError("unknown event type", string(event.Type))
	}
	if event.Body == nil {
		return appErrors.NewBadRequestError("event body is required", "")
	}
	return nil
}

// processOne enforces access-level (§4.3, checked before the processor
// runs per this spec's defense-in-depth tightening), then invokes the
// matching processor through the per-event retry policy (§4.4 step 8): up
// to 3 attempts, exponential backoff, never retrying AuthenticationError.
func (c *Coordinator) processOne(ctx context.Context, scope *domain.Scope, apiKey *domain.OrgEnrichedAPIKey, event *domain.Event) (*domain.ProcessedResult, error) {
	if scope.AccessLevel != domain.AccessLevelAll && event.Type != domain.EventTypeScoreCreate {
		return nil, appErrors.NewUnauthorizedError("scope is restricted to score submission")
	}

	proc, ok := c.registry.ProcessorFor(event.Type)
	if !ok {
		return nil, appErrors.NewBadRequestError("no processor registered for event type", string(event.Type))
	}

	var processed *domain.ProcessedResult
	cfg := retry.DefaultConfig(domain.Retryable)
	attempts, err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		p, procErr := proc.Process(ctx, scope, event)
		if procErr != nil {
			return procErr
		}
		processed = p
		return nil
	})

	if err != nil {
		telemetry.RecordIncrement("ingestion_event_errors_total", 1, map[string]string{
			"event_type": string(event.Type),
			"project_id": scope.ProjectID.String(),
		})
		c.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"attempts":   attempts,
		}).Warn("ingestion: event processing failed")
		return nil, err
	}

	return processed, nil
}

// sortEvents stably partitions ordered events so that every non-*_UPDATE
// event precedes every *_UPDATE event, preserving relative order within
// each partition (§4.4 step 7, §8 invariant 2).
func sortEvents(events []*domain.Event) []*domain.Event {
	out := make([]*domain.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Type.IsUpdate() && out[j].Type.IsUpdate()
	})
	return out
}

func eventID(event *domain.Event) string {
	if event == nil || event.ID == "" {
		return "unknown"
	}
	return event.ID
}

func errorItem(id string, err error) domain.ItemStatus {
	return domain.ItemStatus{
		ID:      id,
		Status:  domain.StatusFor(err),
		Message: domain.MessageFor(err),
		Error:   string(appErrors.GetErrorType(err)),
	}
}
