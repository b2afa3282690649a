package ingestion

import (
	"context"
	"errors"
	"time"

	"brokle/pkg/ulid"
)

// ErrJobExecutionNotFound is returned by JobExecutionRepository.GetByID
// when no row matches the given (id, projectID) pair.
var ErrJobExecutionNotFound = errors.New("job execution not found")

// JobExecutionStatus is the closed set of states a C7 evaluation-job
// execution may occupy. Transitions are monotonic: PENDING -> (COMPLETED
// | ERROR), never backward, and ERROR only overwrites a non-terminal
// status (§4.8 "terminal-status semantics").
type JobExecutionStatus string

const (
	JobExecutionPending   JobExecutionStatus = "PENDING"
	JobExecutionCompleted JobExecutionStatus = "COMPLETED"
	JobExecutionError     JobExecutionStatus = "ERROR"
)

// IsTerminal reports whether s is a final state the executor must not
// overwrite.
func (s JobExecutionStatus) IsTerminal() bool {
	return s == JobExecutionCompleted || s == JobExecutionError
}

// JobExecution tracks one run of an evaluation rule against a trace,
// created by C6 and driven to a terminal state by C7.
type JobExecution struct {
	ID        ulid.ULID
	ProjectID ulid.ULID
	RuleID    ulid.ULID
	TraceID   string
	Status    JobExecutionStatus
	Error     *string
	StartTime time.Time
	EndTime   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJobExecution constructs a pending execution row, as C6 does for each
// evaluation it schedules before enqueuing its EvalExecutionJob.
func NewJobExecution(projectID, ruleID ulid.ULID, traceID string) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:        ulid.New(),
		ProjectID: projectID,
		RuleID:    ruleID,
		TraceID:   traceID,
		Status:    JobExecutionPending,
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fail drives the execution to ERROR, recording the end time and message.
// Per §4.8, this only ever overwrites a non-terminal status; callers that
// already observed a COMPLETED execution must not call this.
func (j *JobExecution) Fail(message string) {
	now := time.Now()
	j.Status = JobExecutionError
	j.Error = &message
	j.EndTime = &now
	j.UpdatedAt = now
}

// Complete drives the execution to COMPLETED, recording the end time.
func (j *JobExecution) Complete() {
	now := time.Now()
	j.Status = JobExecutionCompleted
	j.EndTime = &now
	j.UpdatedAt = now
}

// JobExecutionRepository persists JobExecution rows, scoped by project like
// every other write path in this pipeline.
type JobExecutionRepository interface {
	Create(ctx context.Context, exec *JobExecution) error
	// UpdateTerminal applies a terminal status transition, guarded by the
	// existing row's current status so a completed execution can never be
	// regressed back to ERROR by a late, redelivered message.
	UpdateTerminal(ctx context.Context, exec *JobExecution) error
	GetByID(ctx context.Context, id, projectID ulid.ULID) (*JobExecution, error)
}
