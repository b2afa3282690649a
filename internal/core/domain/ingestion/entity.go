// Package ingestion models the telemetry batch-ingestion pipeline: the
// inbound event envelope, the authenticated scope resolved for a request,
// and the queue payloads handed off to the asynchronous evaluation workers.
package ingestion

import (
	"time"

	"brokle/pkg/ulid"
)

// EventType is the closed set of telemetry event kinds a batch may carry.
type EventType string

const (
	EventTypeTraceCreate       EventType = "TRACE_CREATE"
	EventTypeObservationCreate EventType = "OBSERVATION_CREATE"
	EventTypeObservationUpdate EventType = "OBSERVATION_UPDATE"
	EventTypeSpanCreate        EventType = "SPAN_CREATE"
	EventTypeSpanUpdate        EventType = "SPAN_UPDATE"
	EventTypeGenerationCreate  EventType = "GENERATION_CREATE"
	EventTypeGenerationUpdate  EventType = "GENERATION_UPDATE"
	EventTypeEventCreate       EventType = "EVENT_CREATE"
	EventTypeScoreCreate       EventType = "SCORE_CREATE"
	EventTypeSdkLog            EventType = "SDK_LOG"
)

// IsUpdate reports whether the event type is an *_UPDATE variant, which
// must be ordered after all creates within a batch (see §4.4 step 7).
func (t EventType) IsUpdate() bool {
	switch t {
	case EventTypeObservationUpdate, EventTypeSpanUpdate, EventTypeGenerationUpdate:
		return true
	default:
		return false
	}
}

// IsValid reports whether t is one of the closed set of event types.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeTraceCreate, EventTypeObservationCreate, EventTypeObservationUpdate,
		EventTypeSpanCreate, EventTypeSpanUpdate, EventTypeGenerationCreate,
		EventTypeGenerationUpdate, EventTypeEventCreate, EventTypeScoreCreate, EventTypeSdkLog:
		return true
	default:
		return false
	}
}

// Event is a single tagged record within a batch, as submitted by an SDK.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp *int64         `json:"timestamp,omitempty"`
	Body      map[string]any `json:"body"`
}

// BatchEnvelope is the top-level request body of POST /api/public/ingestion.
type BatchEnvelope struct {
	Batch    []*Event       `json:"batch"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MaxBatchBytes is the payload size ceiling enforced before parsing proceeds.
const MaxBatchBytes = 4*1024*1024 + 512*1024 // 4.5 MB

// MaxBatchEvents bounds the number of events accepted in a single envelope.
const MaxBatchEvents = 1000

// AccessLevel is the scope's granted access for a project.
type AccessLevel string

const (
	AccessLevelAll    AccessLevel = "all"
	AccessLevelScores AccessLevel = "scores"
)

// Scope describes the project and access level resolved from an API key.
type Scope struct {
	ProjectID   ulid.ULID
	AccessLevel AccessLevel
}

// Plan is the closed set of billing plans an organization-enriched API key
// may carry; PlanGroup collapses them into a rate-limit-config equivalence
// class (see ratelimit.PlanGroups).
type Plan string

const (
	PlanDefault           Plan = "default"
	PlanCloudHobby        Plan = "cloud:hobby"
	PlanCloudPro          Plan = "cloud:pro"
	PlanCloudTeam         Plan = "cloud:team"
	PlanSelfHostedEnterp  Plan = "self-hosted:enterprise"
)

// RateLimitResource is the closed set of resources the limiter admits on.
type RateLimitResource string

const (
	ResourceIngestion         RateLimitResource = "ingestion"
	ResourcePrompts           RateLimitResource = "prompts"
	ResourcePublicAPI         RateLimitResource = "public-api"
	ResourcePublicAPIMetrics  RateLimitResource = "public-api-metrics"
)

// RateLimitConfig is one resource's budget: nil Points or Duration means
// the resource is unlimited for the plan/override it belongs to.
type RateLimitConfig struct {
	Points          *int
	DurationSeconds *int
}

// Unlimited reports whether this config imposes no budget.
func (c RateLimitConfig) Unlimited() bool {
	return c.Points == nil || c.DurationSeconds == nil
}

// RateLimitOverride pins a specific resource's budget for one API key,
// taking priority over its plan group's default.
type RateLimitOverride struct {
	Resource RateLimitResource
	Config   RateLimitConfig
}

// OrgEnrichedAPIKey is the authenticated principal's key, enriched with its
// owning organization's plan and any per-key rate-limit overrides.
type OrgEnrichedAPIKey struct {
	OrgID       ulid.ULID
	Plan        Plan
	RateLimits  []RateLimitOverride
}

// OverrideFor returns the override configured for resource, if any.
func (k OrgEnrichedAPIKey) OverrideFor(resource RateLimitResource) (RateLimitConfig, bool) {
	for _, o := range k.RateLimits {
		if o.Resource == resource {
			return o.Config, true
		}
	}
	return RateLimitConfig{}, false
}

// APIScope is the result of authenticating an inbound request.
type APIScope struct {
	ValidKey bool
	APIKey   *OrgEnrichedAPIKey
	Scope    *Scope
	Error    error
}

// RateLimitResult is returned by the rate-limit service for every check,
// whether or not the budget was exhausted (see C1 §4.1).
type RateLimitResult struct {
	Resource          RateLimitResource
	Points            int
	RemainingPoints   int
	MsBeforeNext      int64
	ConsumedPoints    int
	IsFirstInDuration bool
}

// Exceeded reports whether the caller has depleted its budget.
func (r RateLimitResult) Exceeded() bool {
	return r.RemainingPoints <= 0
}

// ItemStatus is the outcome recorded for one event in the batch response.
type ItemStatus struct {
	ID      string `json:"id"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the aggregated partial-success outcome of one ingestion
// request, returned as the body of a 207 Multi-Status response.
type BatchResult struct {
	Successes []ItemStatus `json:"successes"`
	Errors    []ItemStatus `json:"errors"`
}

// ProcessedResult is what a processor returns for one successfully
// persisted event; ID is used downstream by the dispatcher to identify
// trace-upserts.
type ProcessedResult struct {
	EventType EventType
	ID        string
}

// TraceUpsertJob is the payload enqueued on the TraceUpsert queue by the
// cross-service dispatcher's receiving worker.
type TraceUpsertJob struct {
	TraceID   string    `json:"traceId"`
	ProjectID ulid.ULID `json:"projectId"`
}

// EvalExecutionJob is the payload enqueued on the EvaluationExecution queue
// by the eval-job-creator worker for each concrete evaluation to run.
type EvalExecutionJob struct {
	JobExecutionID ulid.ULID `json:"jobExecutionId"`
	ProjectID      ulid.ULID `json:"projectId"`
	RuleID         ulid.ULID `json:"ruleId,omitempty"`
}

// TraceUpsertNotification is one element of the JSON array POSTed by the
// cross-service dispatcher (C5) to the worker service.
type TraceUpsertNotification struct {
	TraceID   string    `json:"traceId"`
	ProjectID ulid.ULID `json:"projectId"`
}

// EventAudit is the minimal record persisted by the raw-event audit sink
// (§4.4 step 6) before typed processing begins.
type EventAudit struct {
	EventID     string
	ProjectID   ulid.ULID
	Type        EventType
	Body        map[string]any
	RecordedAt  time.Time
}
