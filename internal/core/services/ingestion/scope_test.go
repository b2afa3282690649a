package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "brokle/internal/core/domain/auth"
	organizationDomain "brokle/internal/core/domain/organization"
	"brokle/pkg/ulid"
)

type fakeAPIKeyGetter struct {
	key *authDomain.APIKey
	err error
}

func (f *fakeAPIKeyGetter) GetAPIKey(ctx context.Context, keyID ulid.ULID) (*authDomain.APIKey, error) {
	return f.key, f.err
}

type fakeOrgGetter struct {
	org *organizationDomain.Organization
	err error
}

func (f *fakeOrgGetter) GetOrganization(ctx context.Context, orgID ulid.ULID) (*organizationDomain.Organization, error) {
	return f.org, f.err
}

func TestScopeResolver_Resolve_HappyPath(t *testing.T) {
	projectID := ulid.New()
	orgID := ulid.New()
	key := &authDomain.APIKey{
		ID:             ulid.New(),
		OrganizationID: orgID,
		ProjectID:      &projectID,
		Scopes:         []string{"*"},
		IsActive:       true,
		RateLimitRPM:   120,
	}
	org := &organizationDomain.Organization{ID: orgID, Plan: "pro"}

	resolver := NewScopeResolver(&fakeAPIKeyGetter{key: key}, &fakeOrgGetter{org: org})

	scope, enriched, err := resolver.Resolve(context.Background(), key.ID, projectID)

	require.NoError(t, err)
	assert.Equal(t, projectID, scope.ProjectID)
	assert.Equal(t, "all", string(scope.AccessLevel))
	assert.Equal(t, "cloud:pro", string(enriched.Plan))
	require.Len(t, enriched.RateLimits, 1)
	assert.Equal(t, 120, *enriched.RateLimits[0].Config.Points)
}

func TestScopeResolver_Resolve_RevokedKey(t *testing.T) {
	projectID := ulid.New()
	key := &authDomain.APIKey{ID: ulid.New(), ProjectID: &projectID, IsActive: false}
	resolver := NewScopeResolver(&fakeAPIKeyGetter{key: key}, &fakeOrgGetter{})

	_, _, err := resolver.Resolve(context.Background(), key.ID, projectID)

	assert.Error(t, err)
}

func TestScopeResolver_Resolve_WrongProject(t *testing.T) {
	projectID := ulid.New()
	other := ulid.New()
	key := &authDomain.APIKey{ID: ulid.New(), ProjectID: &other, IsActive: true}
	resolver := NewScopeResolver(&fakeAPIKeyGetter{key: key}, &fakeOrgGetter{})

	_, _, err := resolver.Resolve(context.Background(), key.ID, projectID)

	assert.Error(t, err)
}

func TestAccessLevelFor_ScoresOnlyScope(t *testing.T) {
	assert.Equal(t, "scores", string(accessLevelFor([]string{"scores"})))
	assert.Equal(t, "all", string(accessLevelFor([]string{"scores", "ingestion"})))
	assert.Equal(t, "all", string(accessLevelFor(nil)))
}
