package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRequest is returned when a generation request has nothing to work on.
	ErrEmptyRequest = errors.New("empty request")
	// ErrUnknownKind is returned for a kind other than title, retrospective or experience.
	ErrUnknownKind = errors.New("unknown generation kind")
	// ErrValidationFailed matches every *ValidationError under errors.Is.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError names the request field that was rejected. Message is
// safe to return to callers verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
