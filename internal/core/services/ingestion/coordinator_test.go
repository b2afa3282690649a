package ingestion

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "brokle/internal/core/domain/ingestion"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/ulid"
)

type fakeProcessor struct {
	fail    func(callNum int) error
	calls   int
	eventID string
}

func (f *fakeProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	f.calls++
	f.eventID = event.ID
	if f.fail != nil {
		if err := f.fail(f.calls); err != nil {
			return nil, err
		}
	}
	return &domain.ProcessedResult{EventType: event.Type, ID: event.ID}, nil
}

type fakeRegistry struct {
	byType map[domain.EventType]domain.Processor
}

func (r *fakeRegistry) ProcessorFor(t domain.EventType) (domain.Processor, bool) {
	p, ok := r.byType[t]
	return p, ok
}

type fakeAuditSink struct {
	persisted []*domain.EventAudit
	failIDs   map[string]bool
}

func (f *fakeAuditSink) PersistRawEvent(ctx context.Context, audit *domain.EventAudit) error {
	if f.failIDs[audit.EventID] {
		return appErrors.NewInternalError("audit write failed", nil)
	}
	f.persisted = append(f.persisted, audit)
	return nil
}

type fakeDispatcher struct {
	projectID string
	results   []*domain.ProcessedResult
}

func (f *fakeDispatcher) DispatchTraceUpserts(ctx context.Context, projectID string, results []*domain.ProcessedResult) {
	f.projectID = projectID
	f.results = results
}

func newTestCoordinator(registry *fakeRegistry, audit *fakeAuditSink, dispatcher *fakeDispatcher) *Coordinator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewCoordinator(registry, audit, dispatcher, logger)
}

func TestCoordinator_ProcessBatch_PartialSuccess(t *testing.T) {
	traceProc := &fakeProcessor{}
	invalidProc := &fakeProcessor{fail: func(int) error { return appErrors.NewBadRequestError("bad body", "") }}
	registry := &fakeRegistry{byType: map[domain.EventType]domain.Processor{
		domain.EventTypeTraceCreate:       traceProc,
		domain.EventTypeObservationUpdate: invalidProc,
	}}
	audit := &fakeAuditSink{}
	dispatcher := &fakeDispatcher{}
	c := newTestCoordinator(registry, audit, dispatcher)

	scope := &domain.Scope{ProjectID: ulid.New(), AccessLevel: domain.AccessLevelAll}
	apiKey := &domain.OrgEnrichedAPIKey{OrgID: ulid.New(), Plan: domain.PlanDefault}

	envelope := &domain.BatchEnvelope{Batch: []*domain.Event{
		{ID: "a", Type: domain.EventTypeTraceCreate, Body: map[string]any{}},
		{ID: "b", Type: domain.EventTypeObservationUpdate, Body: map[string]any{}},
		{ID: "c", Type: "NOT_A_TYPE", Body: map[string]any{}},
	}}

	result, err := c.ProcessBatch(context.Background(), scope, apiKey, envelope)
	require.NoError(t, err)

	assert.Len(t, result.Successes, 1)
	assert.Equal(t, "a", result.Successes[0].ID)
	assert.Equal(t, 201, result.Successes[0].Status)

	require.Len(t, result.Errors, 2)
	ids := []string{result.Errors[0].ID, result.Errors[1].ID}
	assert.Contains(t, ids, "b")
	assert.Contains(t, ids, "c")

	require.Len(t, dispatcher.results, 1)
	assert.Equal(t, "a", dispatcher.results[0].ID)
}

func TestCoordinator_ProcessBatch_OrdersCreatesBeforeUpdates(t *testing.T) {
	var order []string
	registry := &fakeRegistry{byType: map[domain.EventType]domain.Processor{
		domain.EventTypeObservationUpdate: &orderTrackingProcessor{order: &order},
		domain.EventTypeObservationCreate: &orderTrackingProcessor{order: &order},
	}}
	audit := &fakeAuditSink{}
	dispatcher := &fakeDispatcher{}
	c := newTestCoordinator(registry, audit, dispatcher)

	scope := &domain.Scope{ProjectID: ulid.New(), AccessLevel: domain.AccessLevelAll}
	apiKey := &domain.OrgEnrichedAPIKey{OrgID: ulid.New(), Plan: domain.PlanDefault}

	envelope := &domain.BatchEnvelope{Batch: []*domain.Event{
		{ID: "u", Type: domain.EventTypeObservationUpdate, Body: map[string]any{}},
		{ID: "c", Type: domain.EventTypeObservationCreate, Body: map[string]any{}},
	}}

	_, err := c.ProcessBatch(context.Background(), scope, apiKey, envelope)
	require.NoError(t, err)

	require.Len(t, order, 2)
	assert.Equal(t, "c", order[0])
	assert.Equal(t, "u", order[1])
}

type orderTrackingProcessor struct {
	order *[]string
}

func (p *orderTrackingProcessor) Process(ctx context.Context, scope *domain.Scope, event *domain.Event) (*domain.ProcessedResult, error) {
	*p.order = append(*p.order, event.ID)
	return &domain.ProcessedResult{EventType: event.Type, ID: event.ID}, nil
}

func TestCoordinator_ProcessBatch_ScoresOnlyScopeRejectsNonScore(t *testing.T) {
	traceProc := &fakeProcessor{}
	scoreProc := &fakeProcessor{}
	registry := &fakeRegistry{byType: map[domain.EventType]domain.Processor{
		domain.EventTypeTraceCreate: traceProc,
		domain.EventTypeScoreCreate: scoreProc,
	}}
	audit := &fakeAuditSink{}
	dispatcher := &fakeDispatcher{}
	c := newTestCoordinator(registry, audit, dispatcher)

	scope := &domain.Scope{ProjectID: ulid.New(), AccessLevel: domain.AccessLevelScores}
	apiKey := &domain.OrgEnrichedAPIKey{OrgID: ulid.New(), Plan: domain.PlanDefault}

	envelope := &domain.BatchEnvelope{Batch: []*domain.Event{
		{ID: "s", Type: domain.EventTypeScoreCreate, Body: map[string]any{}},
		{ID: "t", Type: domain.EventTypeTraceCreate, Body: map[string]any{}},
	}}

	result, err := c.ProcessBatch(context.Background(), scope, apiKey, envelope)
	require.NoError(t, err)

	require.Len(t, result.Successes, 1)
	assert.Equal(t, "s", result.Successes[0].ID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "t", result.Errors[0].ID)
	assert.Equal(t, 401, result.Errors[0].Status)
	assert.Equal(t, 0, traceProc.calls)
}

func TestCoordinator_ProcessBatch_AuditFailureDropsEventWithoutProcessing(t *testing.T) {
	traceProc := &fakeProcessor{}
	registry := &fakeRegistry{byType: map[domain.EventType]domain.Processor{domain.EventTypeTraceCreate: traceProc}}
	audit := &fakeAuditSink{failIDs: map[string]bool{"a": true}}
	dispatcher := &fakeDispatcher{}
	c := newTestCoordinator(registry, audit, dispatcher)

	scope := &domain.Scope{ProjectID: ulid.New(), AccessLevel: domain.AccessLevelAll}
	apiKey := &domain.OrgEnrichedAPIKey{OrgID: ulid.New(), Plan: domain.PlanDefault}

	envelope := &domain.BatchEnvelope{Batch: []*domain.Event{{ID: "a", Type: domain.EventTypeTraceCreate, Body: map[string]any{}}}}

	result, err := c.ProcessBatch(context.Background(), scope, apiKey, envelope)
	require.NoError(t, err)

	assert.Empty(t, result.Successes)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, traceProc.calls)
}
