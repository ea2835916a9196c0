package validation

import "sort"

// Schema is a map of field names to their rules.
type Schema map[string]Rule

// Validate checks every field of the schema against data.
// Missing fields are validated as empty strings.
// Failures are reported in field-name order.
func Validate(schema Schema, data map[string]string) error {
	if len(schema) == 0 {
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var errs []error
	for _, name := range fields {
		if err := schema[name].Validate(data[name]); err != nil {
			errs = append(errs, &FieldError{Field: name, Reason: err.Error()})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
