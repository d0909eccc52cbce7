package errors

import (
	"errors"
	"fmt"
)

// Error categories. Every domain validation error wraps ErrValidation and every
// store/transport failure wraps ErrTransientStore, so callers can branch with
// errors.Is on the category alone.
var (
	ErrValidation     = errors.New("validation failed")
	ErrTransientStore = errors.New("store temporarily unavailable")
)

// Domain errors - these represent business rule violations
var (
	// Authorization
	ErrForbidden    = errors.New("action forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Conversation validation
	ErrInvalidChannel      = fmt.Errorf("%w: unknown channel", ErrValidation)
	ErrInvalidSenderRole   = fmt.Errorf("%w: sender role not allowed on channel", ErrValidation)
	ErrScopeRequired       = fmt.Errorf("%w: scope id is required", ErrValidation)
	ErrScopeUnresolved     = fmt.Errorf("%w: scope does not resolve to a known participant", ErrValidation)
	ErrMessageBodyRequired = fmt.Errorf("%w: message body is required", ErrValidation)
	ErrMessageBodyTooLong  = fmt.Errorf("%w: message body exceeds maximum length", ErrValidation)
	ErrSubjectNotAllowed   = fmt.Errorf("%w: subject is only allowed on vendor messages", ErrValidation)
	ErrSubjectTooLong      = fmt.Errorf("%w: subject exceeds maximum length", ErrValidation)
	ErrInvalidParent       = fmt.Errorf("%w: parent message is not part of this conversation", ErrValidation)

	// Notification validation
	ErrUnknownNotificationType   = fmt.Errorf("%w: unknown notification type", ErrValidation)
	ErrNotificationTitleRequired = fmt.Errorf("%w: notification title is required", ErrValidation)
	ErrNotificationTitleTooLong  = fmt.Errorf("%w: notification title exceeds maximum length", ErrValidation)
	ErrNotificationBodyTooLong   = fmt.Errorf("%w: notification body exceeds maximum length", ErrValidation)

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// StoreError marks err as a transient store failure while keeping the
// original error reachable through errors.As.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}

// IsValidation reports whether err is a synchronous validation rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransient reports whether err is a store/transport failure the user may retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
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

func NewValidationError(err error, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: 422,
		Details:    details,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}

// Unwrap lets errors.Is(err, ErrValidation) match field-level failures too.
func (v *ValidationErrors) Unwrap() error {
	return ErrValidation
}
