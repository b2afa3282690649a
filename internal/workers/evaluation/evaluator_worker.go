package evaluation

import (
	"fmt"
	"time"

	"brokle/internal/core/domain/evaluation"
	"brokle/pkg/ulid"
)

// evaluationJobsStream is the Redis stream ManualTriggerWorker emits jobs to
// and EvaluationWorker consumes from.
const evaluationJobsStream = "evaluation:jobs"

// EvaluationJob represents a matched span-evaluator pair to be processed by EvaluationWorker.
type EvaluationJob struct {
	JobID        ulid.ULID              `json:"job_id"`
	EvaluatorID  ulid.ULID              `json:"evaluator_id"`
	ProjectID    ulid.ULID              `json:"project_id"`
	ExecutionID  *ulid.ULID             `json:"execution_id,omitempty"` // Optional: links job to an evaluator execution (for manual triggers)
	SpanData     map[string]interface{} `json:"span_data"`
	TraceID      string                 `json:"trace_id"`
	SpanID       string                 `json:"span_id"`
	ScorerType   evaluation.ScorerType  `json:"scorer_type"`
	ScorerConfig map[string]any         `json:"scorer_config"`
	Variables    map[string]string      `json:"variables"` // Extracted variables from span
	CreatedAt    time.Time              `json:"created_at"`
}

// compareNumeric orders two filter-clause operands numerically, coercing
// both sides through toFloat64.
func compareNumeric(a, b interface{}) int {
	aFloat := toFloat64(a)
	bFloat := toFloat64(b)

	if aFloat < bFloat {
		return -1
	}
	if aFloat > bFloat {
		return 1
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case string:
		var f float64
		_, _ = fmt.Sscanf(val, "%f", &f)
		return f
	default:
		return 0
	}
}
