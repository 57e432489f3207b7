// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	// ErrorTypeValidation marks locally-detected bad input.
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeNotFound marks a missing record.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeProviderAuth marks an invalid or missing API credential.
	// Never retried.
	ErrorTypeProviderAuth ErrorType = "provider_auth_error"
	// ErrorTypeSafetyBlock marks a content-policy rejection from the
	// provider. Never retried; the message is surfaced to the user.
	ErrorTypeSafetyBlock ErrorType = "provider_safety_block"
	// ErrorTypeTransient marks a retriable provider failure: network error,
	// malformed success response, empty predictions.
	ErrorTypeTransient ErrorType = "provider_transient_error"
	// ErrorTypeSchemaViolation marks provider output that parsed as JSON but
	// failed shape validation. Always carries field-level diagnostics.
	ErrorTypeSchemaViolation ErrorType = "provider_schema_violation"
)

// AppError is the error type surfaced by every component in this module.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	// Fields holds one "path: reason" line per offending field for
	// validation and schema errors.
	Fields []string
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s\n- %s", msg, strings.Join(e.Fields, "\n- "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError of the given type.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
	}
}

// NewValidationError creates a local input-validation error.
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError creates a missing-record error.
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProviderAuthError creates a credential error.
func NewProviderAuthError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeProviderAuth, message, originalError)
}

// NewSafetyBlockError creates a content-policy rejection error.
func NewSafetyBlockError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeSafetyBlock, message, originalError)
}

// NewTransientError creates a retriable provider error.
func NewTransientError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTransient, message, originalError)
}

// NewSchemaViolationError creates a provider shape-validation error carrying
// per-field diagnostics.
func NewSchemaViolationError(message string, fields []string, originalError error) *AppError {
	return &AppError{
		Type:    ErrorTypeSchemaViolation,
		Message: message,
		Err:     originalError,
		Fields:  fields,
	}
}

// TypeOf returns the classified type of err. Unclassified failures report as
// transient, matching the provider contract for unexpected network errors.
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ErrorTypeTransient
}

// IsRetriable reports whether err may be retried. Only transient provider
// errors qualify; auth, safety, validation, and schema errors never do.
func IsRetriable(err error) bool {
	return TypeOf(err) == ErrorTypeTransient
}

// IsValidationError checks for a local validation error.
func IsValidationError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError checks for a missing-record error.
func IsNotFoundError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeNotFound
	}
	return false
}

// IsProviderAuthError checks for a credential error.
func IsProviderAuthError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeProviderAuth
	}
	return false
}

// IsSafetyBlockError checks for a content-policy rejection.
func IsSafetyBlockError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeSafetyBlock
	}
	return false
}

// IsSchemaViolationError checks for a provider shape-validation failure.
func IsSchemaViolationError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeSchemaViolation
	}
	return false
}

// WrapError wraps an existing error, preserving its classification when it is
// already an AppError.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Fields:  appError.Fields,
		}
	}

	return NewAppError(errType, message, err)
}
