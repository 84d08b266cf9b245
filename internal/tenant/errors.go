package tenant

import (
	"errors"
	"fmt"

	"github.com/warunghq/warungctl/internal/api"
)

// Error codes for tenant resolution failures
const (
	// ErrMembershipFetch means the tenant membership list could not be
	// loaded. Terminal for the current resolution attempt.
	ErrMembershipFetch = "TENANT_MEMBERSHIP_FETCH_FAILED"

	// ErrNoTenant means the user belongs to no tenant.
	ErrNoTenant = "TENANT_NONE"

	// ErrChoiceRequired means more than one membership exists and the user
	// must pick one manually.
	ErrChoiceRequired = "TENANT_CHOICE_REQUIRED"

	// ErrAssumeFailed means exchanging a tenant id for a scoped token
	// failed. Existing session state is untouched.
	ErrAssumeFailed = "TENANT_ASSUME_FAILED"
)

// ResolutionError is a tenant resolution failure with a code and, for
// choice-required failures, the membership list to choose from.
type ResolutionError struct {
	Code        string
	Message     string
	Memberships []api.Membership
	Cause       error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// ErrorCode returns the error code for structured logging.
func (e *ResolutionError) ErrorCode() string { return e.Code }

// IsCode reports whether err is a *ResolutionError with the given code.
func IsCode(err error, code string) bool {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Code == code
	}
	return false
}
