package services

import (
	"errors"
	"strings"
)

// Errors returned by WidgetService. Handlers map them to status codes.
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrWidgetNotFound      = errors.New("not found")
	ErrWidgetAlreadyExists = errors.New("already exists")
	// ErrWidgetNotFoundOnDelete is kept apart from ErrWidgetNotFound because a
	// failed delete is reported as a conflict, not as a missing resource.
	ErrWidgetNotFoundOnDelete = errors.New("not found")
)

// ValidationError carries one message per violated rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Messages, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
