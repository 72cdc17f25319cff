package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable code in error responses.
type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeNotAllowed   ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
)

// APIError represents a structured API error with code, message, and optional details
type APIError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetail adds a single detail to the error
func (e *APIError) WithDetail(key, value string) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func NewValidationError(message string) *APIError {
	return &APIError{
		Code:       ErrCodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundErrorWithID creates a not found error with resource ID
func NewNotFoundErrorWithID(resource, id string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]string{
			"resource": resource,
			"id":       id,
		},
		HTTPStatus: http.StatusNotFound,
	}
}

func NewMethodNotAllowedError(method string) *APIError {
	return &APIError{
		Code:       ErrCodeNotAllowed,
		Message:    "Method not allowed",
		Details:    map[string]string{"method": method},
		HTTPStatus: http.StatusMethodNotAllowed,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		Code:       ErrCodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func NewBadRequestError(message string) *APIError {
	return &APIError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidInputError reports one bad field.
func NewInvalidInputError(field, message string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidInput,
		Message: "Invalid input",
		Details: map[string]string{
			"field":  field,
			"reason": message,
		},
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewDatabaseError(operation string) *APIError {
	return &APIError{
		Code:    ErrCodeDatabaseError,
		Message: "Database operation failed",
		Details: map[string]string{
			"operation": operation,
		},
		HTTPStatus: http.StatusInternalServerError,
	}
}

func NewInternalError(message string) *APIError {
	if message == "" {
		message = "An internal error occurred"
	}
	return &APIError{
		Code:       ErrCodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func NewTimeoutError(operation string) *APIError {
	return &APIError{
		Code:    ErrCodeTimeout,
		Message: "Operation timed out",
		Details: map[string]string{
			"operation": operation,
		},
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// NewUpstreamError creates an error for a failed call to an external API.
// The upstream status goes into details; the response status is always 502.
func NewUpstreamError(service string, status int, message string) *APIError {
	return &APIError{
		Code:    ErrCodeUpstream,
		Message: message,
		Details: map[string]string{
			"service":         service,
			"upstream_status": fmt.Sprintf("%d", status),
		},
		HTTPStatus: http.StatusBadGateway,
	}
}
