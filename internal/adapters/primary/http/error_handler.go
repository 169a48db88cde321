package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/solvedesk/helpdesk-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	// Check for AppError first (our custom error type)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err, requestID)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Map known domain errors to HTTP responses
	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err, requestID)
	WriteJSON(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, apperrors.ErrAuthentication):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid or missing credentials",
			Code:  "UNAUTHORIZED",
		}
	case errors.Is(err, apperrors.ErrInactiveAccount):
		return http.StatusForbidden, ErrorResponse{
			Error: "Account is disabled",
			Code:  "ACCOUNT_DISABLED",
		}
	case errors.Is(err, apperrors.ErrEmptySender), errors.Is(err, apperrors.ErrEmptySubject):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "BAD_REQUEST",
		}
	case errors.Is(err, apperrors.ErrInvalidRecipient):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Recipient address is not a known support address",
			Code:  "UNKNOWN_TENANT",
		}
	case errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrTenantNotFound),
		errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Resource not found",
			Code:  "NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Bad request",
			Code:  "BAD_REQUEST",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

func (h *ErrorHandler) logError(r *http.Request, status int, err error, requestID string) {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}

	if status >= 500 {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Warn("request rejected", attrs...)
	}
}
