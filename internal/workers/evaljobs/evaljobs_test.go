package evaljobs

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "brokle/internal/core/domain/ingestion"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/queue"
	"brokle/pkg/ulid"
)

type fakeQueue struct {
	enqueued [][]byte
	enqueueErr error
}

func (f *fakeQueue) Enqueue(ctx context.Context, payload []byte) (string, error) {
	if f.enqueueErr != nil {
		return "", f.enqueueErr
	}
	f.enqueued = append(f.enqueued, payload)
	return "1-0", nil
}

func (f *fakeQueue) Consume(ctx context.Context, handler queue.Handler) error { return nil }
func (f *fakeQueue) Stop()                                                   {}

type fakeFactory struct {
	jobs []*domain.EvalExecutionJob
	err  error
}

func (f *fakeFactory) CreateEvalJobs(ctx context.Context, job *domain.TraceUpsertJob) ([]*domain.EvalExecutionJob, error) {
	return f.jobs, f.err
}

type fakeExecutor struct {
	err error
}

func (f *fakeExecutor) Evaluate(ctx context.Context, job *domain.EvalExecutionJob) error {
	return f.err
}

type fakeJobExecRepo struct {
	byID    map[ulid.ULID]*domain.JobExecution
	updated []*domain.JobExecution
}

func newFakeJobExecRepo(exec *domain.JobExecution) *fakeJobExecRepo {
	return &fakeJobExecRepo{byID: map[ulid.ULID]*domain.JobExecution{exec.ID: exec}}
}

func (r *fakeJobExecRepo) Create(ctx context.Context, exec *domain.JobExecution) error {
	r.byID[exec.ID] = exec
	return nil
}

func (r *fakeJobExecRepo) UpdateTerminal(ctx context.Context, exec *domain.JobExecution) error {
	r.updated = append(r.updated, exec)
	r.byID[exec.ID] = exec
	return nil
}

func (r *fakeJobExecRepo) GetByID(ctx context.Context, id, projectID ulid.ULID) (*domain.JobExecution, error) {
	exec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJobExecutionNotFound
	}
	return exec, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCreatorWorker_EnqueuesEachEvalJob(t *testing.T) {
	projectID := ulid.New()
	evalJob := &domain.EvalExecutionJob{JobExecutionID: ulid.New(), ProjectID: projectID, RuleID: ulid.New()}
	factory := &fakeFactory{jobs: []*domain.EvalExecutionJob{evalJob}}
	outbox := &fakeQueue{}
	worker := NewCreatorWorker(&fakeQueue{}, outbox, factory, testLogger())

	payload, err := json.Marshal(&domain.TraceUpsertJob{TraceID: "trace-1", ProjectID: projectID})
	require.NoError(t, err)

	err = worker.handle(context.Background(), queue.Message{ID: "1-0", Data: payload, EnqueuedAt: time.Now()})
	require.NoError(t, err)

	require.Len(t, outbox.enqueued, 1)
	var got domain.EvalExecutionJob
	require.NoError(t, json.Unmarshal(outbox.enqueued[0], &got))
	assert.Equal(t, evalJob.RuleID, got.RuleID)
}

func TestCreatorWorker_FactoryErrorPropagatesForRedelivery(t *testing.T) {
	factory := &fakeFactory{err: assertError("boom")}
	worker := NewCreatorWorker(&fakeQueue{}, &fakeQueue{}, factory, testLogger())

	payload, _ := json.Marshal(&domain.TraceUpsertJob{TraceID: "t", ProjectID: ulid.New()})
	err := worker.handle(context.Background(), queue.Message{ID: "1-0", Data: payload, EnqueuedAt: time.Now()})
	assert.Error(t, err)
}

func TestExecutorWorker_SuccessLeavesExecutionUntouched(t *testing.T) {
	projectID := ulid.New()
	exec := domain.NewJobExecution(projectID, ulid.New(), "trace-1")
	repo := newFakeJobExecRepo(exec)
	worker := NewExecutorWorker(&fakeQueue{}, &fakeExecutor{}, repo, testLogger())

	payload, _ := json.Marshal(&domain.EvalExecutionJob{JobExecutionID: exec.ID, ProjectID: projectID, RuleID: exec.RuleID})
	err := worker.handle(context.Background(), queue.Message{ID: "1-0", Data: payload, EnqueuedAt: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, repo.updated)
}

func TestExecutorWorker_FailurePersistsTerminalError(t *testing.T) {
	projectID := ulid.New()
	exec := domain.NewJobExecution(projectID, ulid.New(), "trace-1")
	repo := newFakeJobExecRepo(exec)
	worker := NewExecutorWorker(&fakeQueue{}, &fakeExecutor{err: appErrors.NewAIProviderError("API key for provider openai is missing", nil)}, repo, testLogger())

	payload, _ := json.Marshal(&domain.EvalExecutionJob{JobExecutionID: exec.ID, ProjectID: projectID, RuleID: exec.RuleID})
	err := worker.handle(context.Background(), queue.Message{ID: "1-0", Data: payload, EnqueuedAt: time.Now()})
	require.Error(t, err)

	require.Len(t, repo.updated, 1)
	assert.Equal(t, domain.JobExecutionError, repo.updated[0].Status)
	require.NotNil(t, repo.updated[0].Error)
	assert.Equal(t, "API key for provider openai is missing", *repo.updated[0].Error)
}

type assertError string

func (e assertError) Error() string { return string(e) }
