package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokle/internal/ee/analytics"
	"brokle/internal/ee/compliance"
	"brokle/internal/ee/rbac"
	"brokle/internal/ee/sso"
)

// TestEnterpriseInterfaceCompliance ensures all enterprise interfaces are properly implemented
// This test works with both OSS (stub) and Enterprise (full) builds
func TestEnterpriseInterfaceCompliance(t *testing.T) {
	ctx := context.Background()

	t.Run("Compliance interface compliance", func(t *testing.T) {
		// Test that New() returns something that implements the interface
		service := compliance.New()
		require.NotNil(t, service)

		// Verify interface compliance at compile time
		var _ compliance.Compliance = service

		// Test all interface methods are callable (should not panic)
		assert.NotPanics(t, func() {
			err := service.ValidateCompliance(ctx, map[string]interface{}{"test": "data"})
			// In stub mode, this should return nil (no error)
			// In enterprise mode, this might return validation results
			assert.NoError(t, err) // Stubs should not error
		})

		assert.NotPanics(t, func() {
			report, err := service.GenerateAuditReport(ctx)
			assert.NoError(t, err)
			assert.NotNil(t, report)
		})

		assert.NotPanics(t, func() {
			result, err := service.AnonymizePII(ctx, map[string]interface{}{"email": "test@example.com"})
			assert.NoError(t, err)
			assert.NotNil(t, result)
		})

		// Test compliance check methods
		assert.NotPanics(t, func() {
			_, err := service.CheckSOC2Compliance(ctx)
			assert.NoError(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.CheckHIPAACompliance(ctx)
			assert.NoError(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.CheckGDPRCompliance(ctx)
			assert.NoError(t, err)
		})
	})

	t.Run("SSO interface compliance", func(t *testing.T) {
		service := sso.New()
		require.NotNil(t, service)

		// Verify interface compliance
		var _ sso.SSOProvider = service

		// Test interface methods
		assert.NotPanics(t, func() {
			err := service.ConfigureProvider(ctx, "saml", "config_string")
			// Stub should return error but not panic
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			url, err := service.GetLoginURL(ctx)
			// Stub should return error but not panic
			assert.Error(t, err)
			assert.Empty(t, url)
		})

		assert.NotPanics(t, func() {
			_, err := service.Authenticate(ctx, "token")
			// Stub should return error but not panic
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.ValidateAssertion(ctx, "assertion")
			// Stub should return error but not panic
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.GetSupportedProviders(ctx)
			// Stub should return error but not panic
			assert.Error(t, err)
		})
	})

	t.Run("RBAC interface compliance", func(t *testing.T) {
		service := rbac.New()
		require.NotNil(t, service)

		// Verify interface compliance
		var _ rbac.RBACManager = service

		// Test interface methods
		testRole := &rbac.Role{
			Name:        "test-role",
			Permissions: []string{"read", "write"},
			Scopes:      []string{"project"},
		}

		assert.NotPanics(t, func() {
			err := service.CreateRole(ctx, testRole)
			// Stub should return error for custom roles
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			err := service.AssignRoleToUser(ctx, "user123", "admin")
			// Basic role assignment should work
			assert.NoError(t, err)
		})

		assert.NotPanics(t, func() {
			has, err := service.CheckPermission(ctx, "user123", "project", "read")
			assert.NoError(t, err)
			// Stub returns true for simplicity
			assert.True(t, has)
		})

		assert.NotPanics(t, func() {
			roles, err := service.ListRoles(ctx)
			assert.NoError(t, err)
			assert.NotNil(t, roles) // Should return basic roles
			assert.NotEmpty(t, roles)
		})

		assert.NotPanics(t, func() {
			perms, err := service.GetUserPermissions(ctx, "user123")
			assert.NoError(t, err)
			assert.NotNil(t, perms)
		})

		assert.NotPanics(t, func() {
			err := service.RemoveRoleFromUser(ctx, "user123", "admin")
			assert.NoError(t, err)
		})
	})

	t.Run("Analytics interface compliance", func(t *testing.T) {
		service := analytics.New()
		require.NotNil(t, service)

		// Verify interface compliance
		var _ analytics.EnterpriseAnalytics = service

		// Test interface methods
		assert.NotPanics(t, func() {
			_, err := service.GeneratePredictiveInsights(ctx, "30d")
			// Stub should return error but not panic
			assert.Error(t, err)
		})

		testDashboard := &analytics.Dashboard{
			Name:        "Test Dashboard",
			Description: "Test",
			Widgets:     []*analytics.Widget{},
		}

		assert.NotPanics(t, func() {
			err := service.CreateCustomDashboard(ctx, testDashboard)
			// Stub should return error
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.ListCustomDashboards(ctx)
			// Stub should return error
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			exportQuery := &analytics.ExportQuery{
				Table:     "requests",
				TimeRange: "24h",
			}
			_, err := service.ExportData(ctx, "json", exportQuery)
			// Stub should return error
			assert.Error(t, err)
		})

		assert.NotPanics(t, func() {
			_, err := service.RunMLModel(ctx, "cost_prediction", map[string]interface{}{"data": "test"})
			// Stub should return error
			assert.Error(t, err)
		})
	})
}

// TestEnterpriseServiceInstantiation ensures all enterprise services can be instantiated
func TestEnterpriseServiceInstantiation(t *testing.T) {
	t.Run("All enterprise services instantiate without error", func(t *testing.T) {
		// These should work in both OSS and Enterprise builds
		assert.NotPanics(t, func() {
			compliance := compliance.New()
			assert.NotNil(t, compliance)
		})

		assert.NotPanics(t, func() {
			sso := sso.New()
			assert.NotNil(t, sso)
		})

		assert.NotPanics(t, func() {
			rbac := rbac.New()
			assert.NotNil(t, rbac)
		})

		assert.NotPanics(t, func() {
			analytics := analytics.New()
			assert.NotNil(t, analytics)
		})
	})
}

// TestStubBehaviorConsistency ensures stub implementations behave consistently
func TestStubBehaviorConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("Stub services provide safe defaults", func(t *testing.T) {
		// Compliance should be permissive in stub mode
		compliance := compliance.New()
		err := compliance.ValidateCompliance(ctx, map[string]interface{}{"test": "data"})
		assert.NoError(t, err, "Stub compliance should not block operations")

		// RBAC should allow basic permissions in stub mode for development
		rbac := rbac.New()
		hasPermission, err := rbac.CheckPermission(ctx, "user", "project", "read")
		assert.NoError(t, err)
		assert.True(t, hasPermission, "Stub RBAC allows basic permissions for development")
	})

	t.Run("Stub services return appropriate empty values", func(t *testing.T) {
		// RBAC should return basic roles
		rbac := rbac.New()
		roles, err := rbac.ListRoles(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, roles, "Should return basic roles, not nil")
		assert.NotEmpty(t, roles, "Should return basic roles like owner, admin, etc.")

		// User permissions should return basic permissions
		permissions, err := rbac.GetUserPermissions(ctx, "user")
		assert.NoError(t, err)
		assert.NotNil(t, permissions, "Should return basic permissions, not nil")
	})
}

// Benchmark tests to ensure interface overhead is minimal
func BenchmarkEnterpriseServiceInstantiation(b *testing.B) {
	b.Run("Compliance instantiation", func(b *testing.B) {
		for range b.N {
			_ = compliance.New()
		}
	})

	b.Run("SSO instantiation", func(b *testing.B) {
		for range b.N {
			_ = sso.New()
		}
	})

	b.Run("RBAC instantiation", func(b *testing.B) {
		for range b.N {
			_ = rbac.New()
		}
	})

	b.Run("Analytics instantiation", func(b *testing.B) {
		for range b.N {
			_ = analytics.New()
		}
	})
}
