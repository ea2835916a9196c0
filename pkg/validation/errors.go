package validation

import (
	"errors"
	"fmt"
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field  string // Field name
	Reason string // Human-readable reason, shown next to the field
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Fields flattens a validation error into field -> reason.
// It returns nil when err carries no field errors.
func Fields(err error) map[string]string {
	var out map[string]string
	add := func(e error) {
		var fe *FieldError
		if errors.As(e, &fe) {
			if out == nil {
				out = make(map[string]string)
			}
			out[fe.Field] = fe.Reason
		}
	}

	if errs := ValidationErrors(err); errs != nil {
		for _, e := range errs {
			add(e)
		}
		return out
	}
	if err != nil {
		add(err)
	}
	return out
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	return len(Fields(err)) > 0
}
