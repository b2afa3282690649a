// Package evaljobs implements C6 (Eval-Job-Creator) and C7 (Eval-Executor):
// two pool-of-consumers workers over pkg/queue.Queue, grounded on
// internal/workers/evaluation's evaluator/evaluation worker pair but
// consuming the ingestion pipeline's two fixed queues instead of scanning
// per-project telemetry streams.
package evaljobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/telemetry"
	"brokle/pkg/queue"
)

// CreatorWorker consumes TraceUpsert jobs and turns each into zero or more
// EvaluationExecution jobs via an injected EvalJobFactory (§4.6).
type CreatorWorker struct {
	inbox   queue.Queue
	outbox  queue.Queue
	factory domain.EvalJobFactory
	logger  *logrus.Logger
}

// NewCreatorWorker builds C6 over inbox (TraceUpsert) and outbox
// (EvaluationExecution).
func NewCreatorWorker(inbox, outbox queue.Queue, factory domain.EvalJobFactory, logger *logrus.Logger) *CreatorWorker {
	return &CreatorWorker{inbox: inbox, outbox: outbox, factory: factory, logger: logger}
}

// Run blocks, consuming inbox until ctx is cancelled.
func (w *CreatorWorker) Run(ctx context.Context) error {
	return w.inbox.Consume(ctx, w.handle)
}

// Stop signals the consume loop to return.
func (w *CreatorWorker) Stop() {
	w.inbox.Stop()
}

func (w *CreatorWorker) handle(ctx context.Context, msg queue.Message) error {
	telemetry.RecordIncrement("trace_upsert_queue_request", 1, nil)
	telemetry.RecordHistogram("trace_upsert_queue_wait_time", time.Since(msg.EnqueuedAt).Seconds(), "s")

	start := time.Now()
	err := telemetry.Instrument(ctx, "evaljobs.creator", true, func(ctx context.Context) error {
		return w.process(ctx, msg)
	})
	telemetry.RecordHistogram("trace_upsert_queue_processing_time", time.Since(start).Seconds(), "s")

	if err != nil {
		w.logger.WithError(err).WithField("message_id", msg.ID).Warn("evaljobs: trace-upsert job failed, will redeliver")
		return err
	}
	return nil
}

func (w *CreatorWorker) process(ctx context.Context, msg queue.Message) error {
	var job domain.TraceUpsertJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		return fmt.Errorf("evaljobs: decode trace-upsert job: %w", err)
	}

	jobs, err := w.factory.CreateEvalJobs(ctx, &job)
	if err != nil {
		return fmt.Errorf("evaljobs: create eval jobs for trace %s: %w", job.TraceID, err)
	}

	telemetry.RecordGauge("trace_upsert_queue_length", float64(len(jobs)), "")

	for _, evalJob := range jobs {
		payload, err := json.Marshal(evalJob)
		if err != nil {
			return fmt.Errorf("evaljobs: encode eval-execution job: %w", err)
		}
		if _, err := w.outbox.Enqueue(ctx, payload); err != nil {
			return fmt.Errorf("evaljobs: enqueue eval-execution job: %w", err)
		}
	}

	return nil
}
