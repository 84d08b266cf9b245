package api

import (
	"errors"
	"fmt"
)

// Error codes for API failures
const (
	// CodeUnauthenticated means no usable token was available, or the
	// backend rejected the user-level credential.
	CodeUnauthenticated = "API_UNAUTHENTICATED"

	// CodeTenantSessionExpired means a tenant-scoped call was rejected with
	// 401. The tenant half of the session has been cleared; the user-level
	// token may still be valid.
	CodeTenantSessionExpired = "API_TENANT_SESSION_EXPIRED"

	// CodeForbidden means the caller is authenticated but lacks permission.
	CodeForbidden = "API_FORBIDDEN"

	// CodeValidation means the backend rejected the request body (422).
	CodeValidation = "API_VALIDATION"

	// CodeRequestFailed covers all other non-success HTTP statuses.
	CodeRequestFailed = "API_REQUEST_FAILED"
)

// Error is the normalized shape of a failed API call.
type Error struct {
	// Status is the HTTP status, or 0 when the request never reached the
	// backend (missing token, transport failure surfaced elsewhere).
	Status int

	// Code classifies the failure
	Code string

	// Message is a human-readable description, preferring the backend's own
	// error or message field when one was returned
	Message string

	// Detail carries the parsed response body when it could not be mapped to
	// a message: a JSON document or raw text
	Detail any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the error code for structured logging.
func (e *Error) ErrorCode() string { return e.Code }

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// codeForStatus maps an HTTP status to an error code for an unscoped call.
func codeForStatus(status int) string {
	switch status {
	case 401:
		return CodeUnauthenticated
	case 403:
		return CodeForbidden
	case 422:
		return CodeValidation
	default:
		return CodeRequestFailed
	}
}
