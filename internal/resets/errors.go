package resets

import (
	"errors"
	"fmt"
)

// Errors returned by the reset pipeline stages.
var (
	// ErrMissingField is returned when a record lacks a required attribute.
	ErrMissingField = errors.New("missing required field")

	// ErrMissingColumn is returned when the reset flag was never computed for a row.
	ErrMissingColumn = errors.New("missing reset flag")

	// ErrTypeMismatch is returned when timestamp or tx id representations
	// cannot be brought to a single comparable form.
	ErrTypeMismatch = errors.New("incompatible representations")

	// ErrReconciliationInvariant is returned when a tx id survives deduplication twice.
	ErrReconciliationInvariant = errors.New("reconciliation invariant violated")

	// ErrInvalidInput is returned when an input collection has the wrong shape.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError carries the row and attribute that failed validation.
type FieldError struct {
	Index int    // position in the caller's slice
	Field string // attribute name
	Err   error  // one of the sentinel errors above
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(index int, field string, err error) error {
	return &FieldError{Index: index, Field: field, Err: err}
}
