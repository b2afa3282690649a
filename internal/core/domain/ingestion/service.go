package ingestion

import (
	"context"

	"brokle/pkg/ulid"
)

// RateLimitService implements C1: per-(org, resource) admission control
// backed by Redis counters with plan-based budgets.
type RateLimitService interface {
	// Check consumes one token for (apiKey.OrgID, resource) and reports the
	// resulting budget state. A nil result with a nil error means the
	// resource is unlimited for this deployment/plan (no limiting applied).
	Check(ctx context.Context, apiKey *OrgEnrichedAPIKey, resource RateLimitResource) (*RateLimitResult, error)
}

// Processor is implemented by each of the four event-type handlers (C3):
// Trace, Observation, Score, SdkLog. It re-validates, authorizes, and
// upserts one cleaned event idempotently by (projectId, id).
type Processor interface {
	Process(ctx context.Context, scope *Scope, event *Event) (*ProcessedResult, error)
}

// ProcessorRegistry maps an event type to its concrete Processor.
type ProcessorRegistry interface {
	ProcessorFor(eventType EventType) (Processor, bool)
}

// Dispatcher implements C5: best-effort fan-out of trace-upserts to a
// separate worker service over HTTP.
type Dispatcher interface {
	DispatchTraceUpserts(ctx context.Context, projectID string, results []*ProcessedResult)
}

// EventAuditSink persists the raw cleaned event before typed processing,
// satisfying §4.4 step 6's persistEventMiddleware collaborator.
type EventAuditSink interface {
	PersistRawEvent(ctx context.Context, audit *EventAudit) error
}

// Coordinator implements C4: the full per-batch ingestion pipeline.
type Coordinator interface {
	ProcessBatch(ctx context.Context, scope *Scope, apiKey *OrgEnrichedAPIKey, envelope *BatchEnvelope) (*BatchResult, error)
}

// ScopeResolver builds the authenticated APIScope (org plan, rate-limit
// overrides, project access level) for an already-verified API key,
// bridging the SDK auth middleware's key identity to C1/C2/C3's inputs.
type ScopeResolver interface {
	Resolve(ctx context.Context, apiKeyID ulid.ULID, projectID ulid.ULID) (*Scope, *OrgEnrichedAPIKey, error)
}

// EvalJobFactory is C6's opaque business function: given a freshly-upserted
// trace, it decides which evaluators apply and materializes the resulting
// EvalExecutionJobs, persisting one pending JobExecution per job before it
// is handed to the EvaluationExecution queue.
type EvalJobFactory interface {
	CreateEvalJobs(ctx context.Context, job *TraceUpsertJob) ([]*EvalExecutionJob, error)
}

// EvalExecutor is C7's opaque business function: it runs the evaluation
// rule referenced by an EvalExecutionJob and drives its JobExecution (and
// the parent RuleExecution, if any) to a terminal state.
type EvalExecutor interface {
	Evaluate(ctx context.Context, job *EvalExecutionJob) error
}
