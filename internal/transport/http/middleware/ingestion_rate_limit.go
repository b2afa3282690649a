package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/telemetry"
	"brokle/pkg/response"
	"brokle/pkg/ulid"
)

// IngestionScopeKey/IngestionAPIKeyKey are the gin context keys C4's
// handler reads the resolved scope and org-enriched API key back from,
// once this middleware (C2) has run.
const (
	IngestionScopeKey  = "ingestion_scope"
	IngestionAPIKeyKey = "ingestion_api_key"
)

// IngestionRateLimitMiddleware implements C2: it composes the already-run
// SDK key verification with C1's per-(org, resource) rate-limit check,
// resolving the request's Scope/OrgEnrichedAPIKey along the way so C4
// never has to touch auth or rate-limiting itself.
type IngestionRateLimitMiddleware struct {
	resolver domain.ScopeResolver
	limiter  domain.RateLimitService
	logger   *logrus.Logger
}

// NewIngestionRateLimitMiddleware builds a C2 middleware for one closed
// rate-limit resource.
func NewIngestionRateLimitMiddleware(resolver domain.ScopeResolver, limiter domain.RateLimitService, logger *logrus.Logger) *IngestionRateLimitMiddleware {
	return &IngestionRateLimitMiddleware{resolver: resolver, limiter: limiter, logger: logger}
}

// RequireResource authenticates (via the SDK auth context set upstream by
// SDKAuthMiddleware) and rate-limits the request against resource,
// matching spec.md §4.2's authAndRateLimit: verify first, rate-limit
// second, and only the latter can produce a 429.
func (m *IngestionRateLimitMiddleware) RequireResource(resource domain.RateLimitResource) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKeyIDVal, ok := c.Get(APIKeyIDKey)
		if !ok {
			response.Unauthorized(c, "API key required")
			c.Abort()
			return
		}
		apiKeyIDPtr, ok := apiKeyIDVal.(*ulid.ULID)
		if !ok || apiKeyIDPtr == nil {
			response.Unauthorized(c, "invalid API key context")
			c.Abort()
			return
		}
		apiKeyID := *apiKeyIDPtr

		projectIDPtr, ok := c.Get(ProjectIDKey)
		if !ok {
			response.Unauthorized(c, "API key is not scoped to a project")
			c.Abort()
			return
		}
		projectID, ok := projectIDPtr.(*ulid.ULID)
		if !ok || projectID == nil {
			response.Unauthorized(c, "API key is not scoped to a project")
			c.Abort()
			return
		}

		scope, apiKey, err := m.resolver.Resolve(c.Request.Context(), apiKeyID, *projectID)
		if err != nil {
			m.logger.WithError(err).Warn("ingestion: scope resolution failed")
			response.Error(c, err)
			c.Abort()
			return
		}

		result, err := m.limiter.Check(c.Request.Context(), apiKey, resource)
		if err != nil {
			m.logger.WithError(err).Error("ingestion: rate limit check failed")
			response.InternalServerError(c, "rate limit check failed")
			c.Abort()
			return
		}

		if result != nil {
			setRateLimitHeaders(c, result)
			if result.Exceeded() {
				telemetry.RecordIncrement("rate_limit_exceeded_total", 1, map[string]string{
					"org_id":   apiKey.OrgID.String(),
					"plan":     string(apiKey.Plan),
					"resource": string(resource),
				})
				response.TooManyRequests(c, "rate limit exceeded")
				c.Abort()
				return
			}
		}

		c.Set(IngestionScopeKey, scope)
		c.Set(IngestionAPIKeyKey, apiKey)
		c.Next()
	}
}

// setRateLimitHeaders writes the §4.2 response headers for both the
// depleted and non-depleted case, so clients can always read their budget.
func setRateLimitHeaders(c *gin.Context, result *domain.RateLimitResult) {
	resetAt := time.Now().Add(time.Duration(result.MsBeforeNext) * time.Millisecond)
	c.Header("Retry-After", strconv.FormatInt(result.MsBeforeNext/1000, 10))
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Points))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.RemainingPoints))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// GetIngestionScope retrieves the Scope resolved by RequireResource.
func GetIngestionScope(c *gin.Context) (*domain.Scope, bool) {
	v, ok := c.Get(IngestionScopeKey)
	if !ok {
		return nil, false
	}
	scope, ok := v.(*domain.Scope)
	return scope, ok
}

// GetIngestionAPIKey retrieves the OrgEnrichedAPIKey resolved by RequireResource.
func GetIngestionAPIKey(c *gin.Context) (*domain.OrgEnrichedAPIKey, bool) {
	v, ok := c.Get(IngestionAPIKeyKey)
	if !ok {
		return nil, false
	}
	apiKey, ok := v.(*domain.OrgEnrichedAPIKey)
	return apiKey, ok
}
