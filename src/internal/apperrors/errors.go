package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different kinds of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeNotFound       ErrorType = "not_found_error"
	ErrorTypeConflict       ErrorType = "conflict_error"
	ErrorTypeAuthorization  ErrorType = "authorization_error"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypeInfrastructure ErrorType = "infrastructure_error"
)

// AppError represents a typed application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new application error
func New(errorType ErrorType, message, code string, statusCode int) *AppError {
	return &AppError{
		Type:       errorType,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	e.Details[key] = value
	return e
}

// Validation reports malformed or incomplete caller input
func Validation(message, field string) *AppError {
	err := New(ErrorTypeValidation, message, "VALIDATION_FAILED", http.StatusBadRequest)
	if field != "" {
		err = err.WithDetail("field", field)
	}
	return err
}

// NotFound reports an absent entity. Out-of-region access is also reported
// as not found so callers cannot probe for records outside their scope.
func NotFound(resource, id string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), "NOT_FOUND", http.StatusNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Conflict reports a violated state precondition
func Conflict(message, resource string) *AppError {
	return New(ErrorTypeConflict, message, "CONFLICT", http.StatusConflict).
		WithDetail("resource", resource)
}

// Authorization reports a caller lacking the role for an action
func Authorization(message string) *AppError {
	return New(ErrorTypeAuthorization, message, "FORBIDDEN", http.StatusForbidden)
}

// Unauthorized reports a missing or invalid credential
func Unauthorized(message string) *AppError {
	return New(ErrorTypeAuthentication, message, "UNAUTHORIZED", http.StatusUnauthorized)
}

// Infrastructure reports an external collaborator or storage failure
func Infrastructure(message string, cause error) *AppError {
	return New(ErrorTypeInfrastructure, message, "INFRASTRUCTURE_ERROR", http.StatusInternalServerError).
		WithCause(cause)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
