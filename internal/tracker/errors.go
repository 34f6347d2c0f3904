package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both resources that never existed and resources
	// belonging to another tenant; the two are indistinguishable on purpose.
	ErrNotFound = errors.New("tracker: not found")

	// ErrConflict surfaces a uniqueness constraint lost at the store, or a
	// delete blocked by dependent records.
	ErrConflict = errors.New("tracker: conflict")

	ErrInvalidInput = errors.New("tracker: invalid input")
)

// ValidationError is a field-scoped rejection of a write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
