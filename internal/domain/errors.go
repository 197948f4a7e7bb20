package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by validation and construction.
var (
	// ErrInvalidCycle indicates a malformed cycle selector.
	ErrInvalidCycle = errors.New("invalid cycle selector")

	// ErrInvalidCurve indicates a curve table that violates the
	// monotonicity or boundedness requirements.
	ErrInvalidCurve = errors.New("invalid curve")

	// ErrInvalidBands indicates a category table that is not a
	// non-overlapping, exhaustive partition of the score range.
	ErrInvalidBands = errors.New("invalid category bands")

	// ErrInvalidCategory indicates an unknown allow-list category.
	ErrInvalidCategory = errors.New("invalid committee category")
)

// ValidationError reports malformed or missing required input. It is
// rejected before any read is attempted and is never retried. One error
// can accumulate multiple field-level failures so administrative
// callers see every problem at once.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the field-level failure messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a field-level failure message.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors reports whether any failure was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates an empty ValidationError for the entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}
