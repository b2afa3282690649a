package evaljobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/telemetry"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/queue"
)

// ExecutorWorker consumes EvaluationExecution jobs, runs the opaque
// evaluate business function, and persists a terminal job_executions row on
// failure (§4.7).
type ExecutorWorker struct {
	inbox    queue.Queue
	executor domain.EvalExecutor
	jobExecs domain.JobExecutionRepository
	logger   *logrus.Logger
}

// NewExecutorWorker builds C7 over inbox (EvaluationExecution).
func NewExecutorWorker(inbox queue.Queue, executor domain.EvalExecutor, jobExecs domain.JobExecutionRepository, logger *logrus.Logger) *ExecutorWorker {
	return &ExecutorWorker{inbox: inbox, executor: executor, jobExecs: jobExecs, logger: logger}
}

// Run blocks, consuming inbox until ctx is cancelled.
func (w *ExecutorWorker) Run(ctx context.Context) error {
	return w.inbox.Consume(ctx, w.handle)
}

// Stop signals the consume loop to return.
func (w *ExecutorWorker) Stop() {
	w.inbox.Stop()
}

func (w *ExecutorWorker) handle(ctx context.Context, msg queue.Message) error {
	telemetry.RecordIncrement("eval_execution_queue_request", 1, nil)
	telemetry.RecordHistogram("eval_execution_queue_wait_time", time.Since(msg.EnqueuedAt).Seconds(), "s")

	start := time.Now()
	// C7 is a child span: the creator's trace context, if any, already
	// rides in msg/ctx via the queue's propagation, so rootSpan is false.
	err := telemetry.Instrument(ctx, "evaljobs.executor", false, func(ctx context.Context) error {
		return w.process(ctx, msg)
	})
	telemetry.RecordHistogram("eval_execution_queue_processing_time", time.Since(start).Seconds(), "s")

	return err
}

func (w *ExecutorWorker) process(ctx context.Context, msg queue.Message) error {
	var job domain.EvalExecutionJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		return fmt.Errorf("evaljobs: decode eval-execution job: %w", err)
	}

	err := w.executor.Evaluate(ctx, &job)
	if err == nil {
		return nil
	}

	w.failJob(ctx, &job, err)

	if !domain.IsExpectedEvalError(err) {
		telemetry.TraceException(ctx, err)
	}

	return err
}

// failJob persists the terminal failure on job_executions before
// propagating err so the queue marks the delivery attempt failed and
// applies its own redelivery/DLQ policy.
func (w *ExecutorWorker) failJob(ctx context.Context, job *domain.EvalExecutionJob, cause error) {
	message := "An internal error occurred"
	if appErr, ok := appErrors.IsAppError(cause); ok {
		message = appErr.Message
	}

	exec, err := w.jobExecs.GetByID(ctx, job.JobExecutionID, job.ProjectID)
	if err != nil {
		w.logger.WithError(err).WithField("job_execution_id", job.JobExecutionID).Error("evaljobs: failed to load job execution for terminal failure")
		return
	}

	exec.Fail(message)
	if err := w.jobExecs.UpdateTerminal(ctx, exec); err != nil {
		w.logger.WithError(err).WithField("job_execution_id", job.JobExecutionID).Error("evaljobs: failed to persist terminal job execution")
	}
}
