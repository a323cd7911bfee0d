package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppErrorCode represents a machine-readable error code for API responses.
type AppErrorCode string

const (
	// ErrCodeValidation indicates bad or missing input.
	ErrCodeValidation AppErrorCode = "VALIDATION_ERROR"
	// ErrCodeNotFound indicates a dataset file was not found.
	ErrCodeNotFound AppErrorCode = "NOT_FOUND"
	// ErrCodeDataFormat indicates the data payload is not a parseable document.
	ErrCodeDataFormat AppErrorCode = "DATA_FORMAT_ERROR"
	// ErrCodeStorage indicates a filesystem read, write or delete failure.
	ErrCodeStorage AppErrorCode = "STORAGE_ERROR"
	// ErrCodeUnauthorized indicates an authentication error.
	ErrCodeUnauthorized AppErrorCode = "UNAUTHORIZED"
	// ErrCodeRequestTooLarge indicates the request body is too large.
	ErrCodeRequestTooLarge AppErrorCode = "REQUEST_TOO_LARGE"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal AppErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with context for API responses.
type AppError struct {
	// Machine-readable error code
	Code AppErrorCode `json:"code"`

	// Human-readable error message
	Message string `json:"message"`

	// HTTP status code
	StatusCode int `json:"-"`

	// Additional error details
	Details map[string]interface{} `json:"details,omitempty"`

	// Original error
	Err error `json:"-"`
}

// NewAppError creates a new application error.
func NewAppError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: GetHTTPStatus(code),
		Details:    make(map[string]interface{}),
	}
}

// NewValidationError reports bad client input.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

// NewNotFoundError reports a missing dataset file.
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message)
}

// NewDataFormatError reports a data payload that could not be parsed.
func NewDataFormatError(message string, cause error) *AppError {
	return NewAppError(ErrCodeDataFormat, message).WithError(cause)
}

// NewStorageError reports a filesystem failure. The cause is folded into the
// message so operators can see it in the response.
func NewStorageError(message string, cause error) *AppError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return NewAppError(ErrCodeStorage, message).WithError(cause)
}

// Error implements error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to error.
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code AppErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus maps error code to HTTP status.
func GetHTTPStatus(code AppErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeDataFormat:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	case ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeStorage, ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
