package ingestion

import (
	"context"

	authDomain "brokle/internal/core/domain/auth"
	domain "brokle/internal/core/domain/ingestion"
	organizationDomain "brokle/internal/core/domain/organization"
	appErrors "brokle/pkg/errors"
	"brokle/pkg/ulid"
)

// apiKeyGetter is the subset of core/services/auth.APIKeyService this
// resolver depends on.
type apiKeyGetter interface {
	GetAPIKey(ctx context.Context, keyID ulid.ULID) (*authDomain.APIKey, error)
}

// organizationGetter is the subset of core/domain/organization.OrganizationService
// this resolver depends on.
type organizationGetter interface {
	GetOrganization(ctx context.Context, orgID ulid.ULID) (*organizationDomain.Organization, error)
}

// scopeResolver implements domain/ingestion.ScopeResolver, bridging an
// already-authenticated API key identity to the scope and rate-limit
// inputs C1-C3 need.
type scopeResolver struct {
	apiKeys apiKeyGetter
	orgs    organizationGetter
}

// NewScopeResolver builds a ScopeResolver backed by the existing API key
// and organization services.
func NewScopeResolver(apiKeys apiKeyGetter, orgs organizationGetter) domain.ScopeResolver {
	return &scopeResolver{apiKeys: apiKeys, orgs: orgs}
}

// Resolve implements domain/ingestion.ScopeResolver.
func (r *scopeResolver) Resolve(ctx context.Context, apiKeyID ulid.ULID, projectID ulid.ULID) (*domain.Scope, *domain.OrgEnrichedAPIKey, error) {
	key, err := r.apiKeys.GetAPIKey(ctx, apiKeyID)
	if err != nil {
		return nil, nil, err
	}
	if !key.IsActive {
		return nil, nil, appErrors.NewForbiddenError("API key is revoked")
	}
	if key.ProjectID == nil || *key.ProjectID != projectID {
		return nil, nil, appErrors.NewForbiddenError("API key is not scoped to this project")
	}

	org, err := r.orgs.GetOrganization(ctx, key.OrganizationID)
	if err != nil {
		return nil, nil, err
	}

	scope := &domain.Scope{
		ProjectID:   projectID,
		AccessLevel: accessLevelFor(key.Scopes),
	}

	enriched := &domain.OrgEnrichedAPIKey{
		OrgID:      key.OrganizationID,
		Plan:       planFor(org.Plan),
		RateLimits: rateLimitOverridesFor(key),
	}

	return scope, enriched, nil
}

// accessLevelFor derives C2's access level from an API key's scope list.
// A key scoped only to "scores" may write scores but nothing else; any
// broader or wildcard scope grants full ingestion access.
func accessLevelFor(scopes []string) domain.AccessLevel {
	if len(scopes) == 0 {
		return domain.AccessLevelAll
	}
	onlyScores := true
	for _, s := range scopes {
		if s == "*" || s == "ingestion" {
			return domain.AccessLevelAll
		}
		if s != "scores" {
			onlyScores = false
		}
	}
	if onlyScores {
		return domain.AccessLevelScores
	}
	return domain.AccessLevelAll
}

// planFor translates the organization's free-text plan into ingestion's
// closed Plan enum, defaulting unrecognized or self-hosted values to
// PlanDefault so an unexpected plan string fails open to the most
// conservative (non-cloud) rate-limit budget rather than erroring.
func planFor(orgPlan string) domain.Plan {
	switch orgPlan {
	case "hobby", "cloud:hobby":
		return domain.PlanCloudHobby
	case "pro", "cloud:pro":
		return domain.PlanCloudPro
	case "team", "cloud:team":
		return domain.PlanCloudTeam
	case "enterprise", "self-hosted:enterprise":
		return domain.PlanSelfHostedEnterp
	default:
		return domain.PlanDefault
	}
}

// rateLimitOverridesFor maps the API key's own RateLimitRPM, when set, to
// a per-key override on the ingestion resource, taking priority over the
// plan group's default budget.
func rateLimitOverridesFor(key *authDomain.APIKey) []domain.RateLimitOverride {
	if key.RateLimitRPM <= 0 {
		return nil
	}
	points := key.RateLimitRPM
	duration := 60
	return []domain.RateLimitOverride{
		{
			Resource: domain.ResourceIngestion,
			Config:   domain.RateLimitConfig{Points: &points, DurationSeconds: &duration},
		},
	}
}
