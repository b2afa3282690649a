// Package ratelimit implements C1: per-(organization, resource) request
// admission backed by Redis, with plan-based default budgets and optional
// per-key overrides.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"brokle/internal/core/domain/ingestion"
	appErrors "brokle/pkg/errors"
)

func intPtr(v int) *int { return &v }

// PlanGroups collapses the closed set of billing plans into the two
// rate-limit-config equivalence classes the defaults table below keys on.
var PlanGroups = map[ingestion.Plan]string{
	ingestion.PlanDefault:          "default",
	ingestion.PlanCloudHobby:       "default",
	ingestion.PlanCloudPro:         "default",
	ingestion.PlanCloudTeam:        "team",
	ingestion.PlanSelfHostedEnterp: "team",
}

// defaultBudgets is the static plan-group × resource configuration table
// (§9: "plan config is static, resource names are a closed set").
var defaultBudgets = map[string]map[ingestion.RateLimitResource]ingestion.RateLimitConfig{
	"default": {
		ingestion.ResourceIngestion:        {Points: intPtr(100), DurationSeconds: intPtr(60)},
		ingestion.ResourcePrompts:          {Points: intPtr(1000), DurationSeconds: intPtr(60)},
		ingestion.ResourcePublicAPI:        {Points: intPtr(1000), DurationSeconds: intPtr(60)},
		ingestion.ResourcePublicAPIMetrics: {Points: intPtr(100), DurationSeconds: intPtr(60)},
	},
	"team": {
		ingestion.ResourceIngestion:        {Points: intPtr(1000), DurationSeconds: intPtr(60)},
		ingestion.ResourcePrompts:          {Points: nil, DurationSeconds: nil},
		ingestion.ResourcePublicAPI:        {Points: intPtr(10000), DurationSeconds: intPtr(60)},
		ingestion.ResourcePublicAPIMetrics: {Points: intPtr(1000), DurationSeconds: intPtr(60)},
	},
}

// consumeScript atomically increments a fixed-window counter, setting its
// expiry only on first creation, and returns {count, ttlMillis}.
var consumeScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// Service implements ingestion.RateLimitService.
type Service struct {
	redis       *redis.Client
	logger      *logrus.Logger
	cloudEnabled bool
}

// New creates a rate-limit service. cloudEnabled mirrors the presence of
// NEXT_PUBLIC_LANGFUSE_CLOUD_REGION (§6): when false, Check always returns
// (nil, nil) — no limiting (§4.1 "cloud gate").
func New(client *redis.Client, logger *logrus.Logger, cloudEnabled bool) *Service {
	return &Service{redis: client, logger: logger, cloudEnabled: cloudEnabled}
}

// Check implements the §4.1 algorithm: cloud gate, plan resolution,
// effective-config selection (override > plan group > default), then an
// atomic Redis consume.
func (s *Service) Check(ctx context.Context, apiKey *ingestion.OrgEnrichedAPIKey, resource ingestion.RateLimitResource) (*ingestion.RateLimitResult, error) {
	if !s.cloudEnabled {
		return nil, nil
	}
	if apiKey == nil {
		return nil, appErrors.NewValidationError("api key is required for rate limiting", "")
	}

	group, ok := PlanGroups[apiKey.Plan]
	if !ok {
		return nil, appErrors.NewAppError(appErrors.InternalError, "unknown billing plan", string(apiKey.Plan), nil)
	}

	cfg, ok := apiKey.OverrideFor(resource)
	if !ok {
		cfg, ok = defaultBudgets[group][resource]
		if !ok {
			return nil, appErrors.NewAppError(appErrors.InternalError, "no rate limit configured for resource", string(resource), nil)
		}
	}

	if cfg.Unlimited() {
		return nil, nil
	}

	key := fmt.Sprintf("rate-limit:%s:%s", resource, apiKey.OrgID.String())
	windowMs := *cfg.DurationSeconds * 1000

	res, err := consumeScript.Run(ctx, s.redis, []string{key}, windowMs).Result()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis consume failed: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return nil, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}
	count := toInt64(vals[0])
	ttlMs := toInt64(vals[1])

	remaining := *cfg.Points - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &ingestion.RateLimitResult{
		Resource:          resource,
		Points:            *cfg.Points,
		RemainingPoints:   remaining,
		MsBeforeNext:      ttlMs,
		ConsumedPoints:    int(count),
		IsFirstInDuration: count == 1,
	}, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
