package cron

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is.
var (
	// ErrInvalidConstraint is returned when an expression is built from a
	// constraint outside its field's domain, a token the dialect does not
	// accept, or a day-of-month/day-of-week pairing the dialect forbids.
	ErrInvalidConstraint = errors.New("invalid constraint")

	// ErrSyntax is returned when a spec string cannot be tokenised.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsatisfiable is returned when a search exhausts its budget without
	// finding a matching time.
	ErrUnsatisfiable = errors.New("unsatisfiable expression")

	// ErrCalendarResolution is returned when a candidate cannot be mapped to
	// a valid instant in the target location.
	ErrCalendarResolution = errors.New("calendar resolution failure")
)

// ErrEmptySpec is returned when an empty spec string is provided.
var ErrEmptySpec = &ValidationError{Message: "empty spec string", kind: ErrSyntax}

// ValidationError represents a cron expression validation error.
type ValidationError struct {
	Message string
	Field   string // Optional: which field caused the error
	Value   string // Optional: the invalid value

	kind error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Message + " in " + e.Field + ": " + e.Value
	}
	return e.Message
}

// Unwrap returns the error kind, ErrInvalidConstraint or ErrSyntax.
func (e *ValidationError) Unwrap() error {
	return e.kind
}

func invalidf(f Field, value, format string, args ...any) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
		Field:   f.String(),
		Value:   value,
		kind:    ErrInvalidConstraint,
	}
}

func syntaxf(f Field, value, format string, args ...any) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
		Field:   f.String(),
		Value:   value,
		kind:    ErrSyntax,
	}
}

func syntaxErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), kind: ErrSyntax}
}
