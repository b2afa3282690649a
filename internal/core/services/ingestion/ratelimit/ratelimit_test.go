package ratelimit

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokle/internal/core/domain/ingestion"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/ulid"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(log.Writer())
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestCheck_CloudDisabled_NoLimiting(t *testing.T) {
	svc := New(nil, testLogger(), false)

	result, err := svc.Check(context.Background(), &ingestion.OrgEnrichedAPIKey{Plan: ingestion.PlanDefault}, ingestion.ResourceIngestion)

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCheck_NilAPIKey_ValidationError(t *testing.T) {
	svc := New(nil, testLogger(), true)

	_, err := svc.Check(context.Background(), nil, ingestion.ResourceIngestion)

	require.Error(t, err)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ValidationError, appErr.Type)
}

func TestCheck_UnknownPlan_ConfigError(t *testing.T) {
	svc := New(nil, testLogger(), true)

	_, err := svc.Check(context.Background(), &ingestion.OrgEnrichedAPIKey{Plan: "bogus-plan"}, ingestion.ResourceIngestion)

	require.Error(t, err)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.InternalError, appErr.Type)
}

func TestCheck_UnlimitedResource_NoLimiting(t *testing.T) {
	svc := New(nil, testLogger(), true)

	apiKey := &ingestion.OrgEnrichedAPIKey{OrgID: ulid.New(), Plan: ingestion.PlanCloudTeam}
	result, err := svc.Check(context.Background(), apiKey, ingestion.ResourcePrompts)

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCheck_OverrideTakesPriorityOverPlan(t *testing.T) {
	points := 5
	duration := 10
	apiKey := &ingestion.OrgEnrichedAPIKey{
		OrgID: ulid.New(),
		Plan:  ingestion.PlanDefault,
		RateLimits: []ingestion.RateLimitOverride{
			{Resource: ingestion.ResourceIngestion, Config: ingestion.RateLimitConfig{Points: &points, DurationSeconds: &duration}},
		},
	}

	cfg, ok := apiKey.OverrideFor(ingestion.ResourceIngestion)
	require.True(t, ok)
	assert.Equal(t, 5, *cfg.Points)
	assert.Equal(t, 10, *cfg.DurationSeconds)
}

func TestPlanGroups_CoversEveryPlan(t *testing.T) {
	plans := []ingestion.Plan{
		ingestion.PlanDefault,
		ingestion.PlanCloudHobby,
		ingestion.PlanCloudPro,
		ingestion.PlanCloudTeam,
		ingestion.PlanSelfHostedEnterp,
	}

	for _, p := range plans {
		group, ok := PlanGroups[p]
		assert.True(t, ok, "plan %s should resolve to a group", p)
		assert.Contains(t, []string{"default", "team"}, group)
	}
}

func TestDefaultBudgets_HobbyAndProMapToDefaultGroup(t *testing.T) {
	assert.Equal(t, "default", PlanGroups[ingestion.PlanCloudHobby])
	assert.Equal(t, "default", PlanGroups[ingestion.PlanCloudPro])
	assert.Equal(t, "team", PlanGroups[ingestion.PlanCloudTeam])
	assert.Equal(t, "team", PlanGroups[ingestion.PlanSelfHostedEnterp])
}
