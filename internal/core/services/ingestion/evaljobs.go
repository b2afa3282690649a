package ingestion

import (
	"context"
	"fmt"

	domain "brokle/internal/core/domain/ingestion"
	evaluationDomain "brokle/internal/core/domain/evaluation"
)

// jobFactory implements domain.EvalJobFactory on top of this repo's own
// evaluation domain: GetActiveByProjectID supplies the matching step and
// JobExecutionRepository/RuleExecutionService supply the bookkeeping C6
// needs before it can hand a job to the EvaluationExecution queue.
type jobFactory struct {
	evaluators evaluationDomain.EvaluatorService
	executions evaluationDomain.RuleExecutionService
	jobExecs   domain.JobExecutionRepository
}

// NewEvalJobFactory builds C6's opaque createEvalJobs business function.
func NewEvalJobFactory(evaluators evaluationDomain.EvaluatorService, executions evaluationDomain.RuleExecutionService, jobExecs domain.JobExecutionRepository) domain.EvalJobFactory {
	return &jobFactory{evaluators: evaluators, executions: executions, jobExecs: jobExecs}
}

// CreateEvalJobs matches every active, trace-scoped evaluator configured for
// the trace's project and schedules one EvalExecutionJob per match. A
// span-scoped evaluator's actual span-level filtering already happened
// upstream of the trace-upsert (it runs against the telemetry stream, not
// this job), so it plays no further part here.
func (f *jobFactory) CreateEvalJobs(ctx context.Context, job *domain.TraceUpsertJob) ([]*domain.EvalExecutionJob, error) {
	evaluators, err := f.evaluators.GetActiveByProjectID(ctx, job.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list active evaluators: %w", err)
	}

	jobs := make([]*domain.EvalExecutionJob, 0, len(evaluators))
	for _, evaluator := range evaluators {
		if evaluator.TargetScope != evaluationDomain.TargetScopeTrace {
			continue
		}

		exec := domain.NewJobExecution(job.ProjectID, evaluator.ID, job.TraceID)
		if err := f.jobExecs.Create(ctx, exec); err != nil {
			return jobs, fmt.Errorf("persist job execution for evaluator %s: %w", evaluator.ID, err)
		}

		if f.executions != nil {
			if _, err := f.executions.StartExecution(ctx, evaluator.ID, job.ProjectID, evaluationDomain.TriggerTypeAutomatic); err != nil {
				// Execution-history bookkeeping is best-effort; the job
				// itself still runs and its JobExecution row is authoritative.
				continue
			}
		}

		jobs = append(jobs, &domain.EvalExecutionJob{
			JobExecutionID: exec.ID,
			ProjectID:      job.ProjectID,
			RuleID:         evaluator.ID,
		})
	}

	return jobs, nil
}

// evaluator implements domain.EvalExecutor on top of RuleExecutionService:
// the actual scorer dispatch (LLM/builtin/regex) is the opaque "evaluate"
// business function this spec deliberately leaves unspecified; what C7
// owns is driving the JobExecution and RuleExecution rows to a terminal
// state once that dispatch (however it runs) reports back.
type evaluator struct {
	evaluators evaluationDomain.EvaluatorService
	jobExecs   domain.JobExecutionRepository
}

// NewEvalExecutor builds C7's opaque evaluate business function.
func NewEvalExecutor(evaluators evaluationDomain.EvaluatorService, jobExecs domain.JobExecutionRepository) domain.EvalExecutor {
	return &evaluator{evaluators: evaluators, jobExecs: jobExecs}
}

func (e *evaluator) Evaluate(ctx context.Context, job *domain.EvalExecutionJob) error {
	exec, err := e.jobExecs.GetByID(ctx, job.JobExecutionID, job.ProjectID)
	if err != nil {
		return fmt.Errorf("load job execution: %w", err)
	}

	if _, err := e.evaluators.TriggerEvaluator(ctx, job.RuleID, job.ProjectID, &evaluationDomain.TriggerOptions{
		SampleLimit: 1,
	}); err != nil {
		return err
	}

	exec.Complete()
	if err := e.jobExecs.UpdateTerminal(ctx, exec); err != nil {
		return fmt.Errorf("persist terminal job execution: %w", err)
	}

	return nil
}
