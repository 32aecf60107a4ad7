package model

import "errors"

// Error taxonomy shared by every layer. Callers test with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrPartialFailure = errors.New("partial failure")
	ErrTransport      = errors.New("transport error")
)

// ValidationError reports the first invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

// Invalid returns a ValidationError for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
