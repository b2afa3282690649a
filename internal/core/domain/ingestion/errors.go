package ingestion

import (
	"strings"

	appErrors "brokle/pkg/errors"
)

// Retryable reports whether a per-event processing failure should be
// retried by the coordinator's dispatch loop (§4.4 step 8). Authentication
// failures are never retryable: a bad or revoked key will not succeed on a
// later attempt, and authentication flows all the way back to a single key
// check up front, so any authentication error below it indicates a caller
// bug, not a transient condition.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := appErrors.IsAppError(err); ok {
		return appErr.Type != appErrors.UnauthorizedError && appErr.Type != appErrors.ForbiddenError
	}
	return true
}

// StatusFor maps a processing error to the HTTP-equivalent status recorded
// against the failing event in the batch response (§4.6).
func StatusFor(err error) int {
	return appErrors.GetStatusCode(err)
}

// MessageFor extracts a caller-facing message for the failing event,
// falling back to the raw error text when it is not an AppError.
func MessageFor(err error) string {
	if appErr, ok := appErrors.IsAppError(err); ok {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return err.Error()
}

// IsExpectedEvalError reports whether an evaluation failure is a known,
// user-caused condition (a missing or invalid provider credential) that
// C7 suppresses from exception tracing while still recording it on the
// job execution (§4.8).
func IsExpectedEvalError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := appErrors.IsAppError(err); ok {
		if appErr.Type == appErrors.AIProviderError {
			return true
		}
	}
	return strings.Contains(err.Error(), "API key for provider")
}
