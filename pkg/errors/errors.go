package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// MsgNotFound is the caller-facing message for any missing resource
const MsgNotFound = "Not found"

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// PublicMessage returns the message safe to show to callers
func (e *ValidationError) PublicMessage() string { return e.Message }

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// PublicMessage returns the message safe to show to callers
func (e *NotFoundError) PublicMessage() string { return e.Error() }

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
	Err      error
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// Unwrap returns the wrapped driver error, if any
func (e *AlreadyExistsError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *AlreadyExistsError) HTTPStatus() int { return http.StatusConflict }

// PublicMessage returns the message safe to show to callers
func (e *AlreadyExistsError) PublicMessage() string { return e.Error() }

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }

// PublicMessage hides the cause; it is only ever logged.
func (e *InternalError) PublicMessage() string { return e.Message }

// HTTPStatuser is implemented by errors that map onto an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
	PublicMessage() string
}

// HTTPStatus returns the status code for err. Errors outside the taxonomy are 500.
func HTTPStatus(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the caller-facing message for err, or fallback when err
// carries none. Causes of unexpected failures are never returned.
func PublicMessage(err error, fallback string) string {
	var s HTTPStatuser
	if errors.As(err, &s) && s.HTTPStatus() != http.StatusInternalServerError {
		return s.PublicMessage()
	}
	return fallback
}
