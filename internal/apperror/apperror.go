package apperror

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// NonFieldErrors is the key used for validation errors that don't belong to a
// single input field (for example, a request body that isn't a JSON object).
const NonFieldErrors = "non_field_errors"

type AppError struct {
	Err     error               // actual error
	Message string              // Human-readable error message
	Field   string              // Optional: field causing the error
	Fields  map[string][]string // Optional: every failing field with its messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// FieldErrors returns the error as a field → messages map, the shape of a
// 400 response body. Single-field errors become a one-entry map and errors
// without a field land under NonFieldErrors.
func (e *AppError) FieldErrors() map[string][]string {
	if len(e.Fields) > 0 {
		return maps.Clone(e.Fields)
	}
	if e.Field != "" {
		return map[string][]string{e.Field: {e.Message}}
	}
	return map[string][]string{NonFieldErrors: {e.Message}}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Invalid returns a validation error carrying every failing field at once.
// Message summarises the failing field names for logs.
func Invalid(fields map[string][]string) *AppError {
	names := slices.Sorted(maps.Keys(fields))
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("invalid input: %v", names),
		Fields:  fields,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError for a request with no valid identity.
// HTTP handlers map this to 401 Unauthorized.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

