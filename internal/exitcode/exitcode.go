// Package exitcode maps errors to process exit codes so scripts can branch
// on the kind of failure.
package exitcode

import (
	"errors"
	"os"
	"strings"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates the user-level credential is missing or rejected
	AuthError = 3

	// TenantError indicates tenant resolution failed or no tenant is active
	TenantError = 4

	// PermissionError indicates the caller lacks permission for the operation
	PermissionError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 130
)

// coded is implemented by the typed errors in this repository.
type coded interface {
	ErrorCode() string
}

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// codeByErrorCode maps the repository's error codes to exit codes.
var codeByErrorCode = map[string]int{
	"API_UNAUTHENTICATED":            AuthError,
	"API_TENANT_SESSION_EXPIRED":     TenantError,
	"API_FORBIDDEN":                  PermissionError,
	"TENANT_MEMBERSHIP_FETCH_FAILED": TenantError,
	"TENANT_NONE":                    TenantError,
	"TENANT_CHOICE_REQUIRED":         TenantError,
	"TENANT_ASSUME_FAILED":           TenantError,
	"CAPABILITIES_FETCH_FAILED":      PermissionError,
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(coded); ok {
			if code, known := codeByErrorCode[ce.ErrorCode()]; known {
				return code
			}
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "unreachable") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

// Description returns a human-readable description of an exit code
func Description(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case TenantError:
		return "Tenant resolution error"
	case PermissionError:
		return "Permission error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
