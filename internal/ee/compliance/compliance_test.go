package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubCompliance(t *testing.T) {
	// Test that the stub implementation works correctly
	compliance := New()
	require.NotNil(t, compliance)

	ctx := context.Background()

	t.Run("ValidateCompliance - stub always passes", func(t *testing.T) {
		err := compliance.ValidateCompliance(ctx, map[string]interface{}{
			"sensitive_data": "test",
		})
		assert.NoError(t, err) // Stub always passes validation
	})

	t.Run("GenerateAuditReport - returns basic report", func(t *testing.T) {
		report, err := compliance.GenerateAuditReport(ctx)
		assert.NoError(t, err)
		assert.Contains(t, string(report), "Basic audit report")
		assert.Contains(t, string(report), "Enterprise license required")
	})

	t.Run("AnonymizePII - stub returns data unchanged", func(t *testing.T) {
		originalData := map[string]interface{}{
			"email": "test@example.com",
			"name":  "John Doe",
		}

		anonymized, err := compliance.AnonymizePII(ctx, originalData)
		assert.NoError(t, err)
		assert.Equal(t, originalData, anonymized) // Stub returns unchanged
	})

	t.Run("Compliance checks - stub returns false", func(t *testing.T) {
		soc2, err := compliance.CheckSOC2Compliance(ctx)
		assert.NoError(t, err)
		assert.False(t, soc2) // Stub always returns false for compliance

		hipaa, err := compliance.CheckHIPAACompliance(ctx)
		assert.NoError(t, err)
		assert.False(t, hipaa)

		gdpr, err := compliance.CheckGDPRCompliance(ctx)
		assert.NoError(t, err)
		assert.False(t, gdpr)
	})
}

func TestComplianceInterface(t *testing.T) {
	// Test that our stub correctly implements the interface
	var compliance Compliance = New()
	
	// This test will fail to compile if the interface is not correctly implemented
	assert.NotNil(t, compliance)
	
	// Test all interface methods are available
	ctx := context.Background()
	
	// These calls should not panic
	assert.NotPanics(t, func() {
		compliance.ValidateCompliance(ctx, nil)
		compliance.GenerateAuditReport(ctx)
		compliance.AnonymizePII(ctx, nil)
		compliance.CheckSOC2Compliance(ctx)
		compliance.CheckHIPAACompliance(ctx)
		compliance.CheckGDPRCompliance(ctx)
	})
}

// Test that would be used for the real enterprise implementation
func TestEnterpriseCompliance_Simulation(t *testing.T) {
	t.Skip("This test simulates what enterprise compliance would look like")
	
	// In the real enterprise implementation, this would test:
	// - Real SOC2 compliance validation
	// - Actual PII anonymization
	// - Real audit report generation with detailed logs
	// - HIPAA compliance checks with actual rules
	// - GDPR compliance with data retention policies
	
	// Example of what the real test might look like:
	/*
	compliance := NewEnterpriseCompliance(config)
	
	// Test real PII anonymization
	data := map[string]interface{}{
		"email": "user@example.com",
		"ssn": "123-45-6789",
	}
	
	anonymized, err := compliance.AnonymizePII(ctx, data)
	assert.NoError(t, err)
	assert.NotEqual(t, data["email"], anonymized["email"]) // Should be anonymized
	assert.NotEqual(t, data["ssn"], anonymized["ssn"])     // Should be anonymized
	
	// Test real compliance checks
	soc2, err := compliance.CheckSOC2Compliance(ctx)
	assert.NoError(t, err)
	assert.True(t, soc2) // Real implementation would return true if compliant
	*/
}