package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Connection authentication
	ErrAuthentication  = errors.New("authentication failed")
	ErrInactiveAccount = errors.New("account is disabled")

	// Directory lookups
	ErrUserNotFound   = errors.New("user not found")
	ErrTenantNotFound = errors.New("tenant not found")

	// Inbound email processing
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrEmptySender      = errors.New("sender address is required")
	ErrEmptySubject     = errors.New("subject is required")
	ErrInvalidRecipient = errors.New("recipient address is not a known support address")

	// Generic
	ErrNotFound   = errors.New("resource not found")
	ErrInternal   = errors.New("internal server error")
	ErrBadRequest = errors.New("bad request")
)

// TenantIsolationError marks a cross-tenant delivery attempt. It must never
// be reachable in correct operation; the hub panics with it so the bug is
// visible instead of silently leaking events across tenants.
type TenantIsolationError struct {
	Room           string
	EventTenantID  string
	ConnectionID   string
	MemberTenantID string
}

func (e *TenantIsolationError) Error() string {
	return fmt.Sprintf(
		"tenant isolation violation: event for tenant %s reached connection %s of tenant %s in room %s",
		e.EventTenantID, e.ConnectionID, e.MemberTenantID, e.Room,
	)
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrAuthentication,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Err:        ErrInactiveAccount,
		Message:    message,
		Code:       "FORBIDDEN",
		StatusCode: 403,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}
