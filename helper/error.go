package helper

import (
	"errors"
	"fmt"
)

// Error wraps an error with a trace describing the failed step
// and an optional kind that callers can match with errors.Is.
type Error struct {
	Kind     error
	Trace    string
	Original error
}

// NewError creates a new Error with the given trace and original error
func NewError(trace string, original error) error {
	return &Error{
		Trace:    trace,
		Original: original,
	}
}

// NewKindError creates a new Error tagged with a kind.
// If original already carries the same kind it is only re-traced.
func NewKindError(kind error, trace string, original error) error {
	if kind != nil && errors.Is(original, kind) {
		kind = nil
	}
	return &Error{
		Kind:     kind,
		Trace:    trace,
		Original: original,
	}
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Original != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Trace, e.Original)
	case e.Kind != nil:
		return fmt.Sprintf("%v: %s", e.Kind, e.Trace)
	case e.Original != nil:
		return fmt.Sprintf("%s: %v", e.Trace, e.Original)
	default:
		return e.Trace
	}
}

// Unwrap exposes both the kind and the original error to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Original != nil {
		errs = append(errs, e.Original)
	}
	return errs
}
