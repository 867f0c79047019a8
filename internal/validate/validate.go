// Package validate collects request validation failures so a response can
// report every offending field at once instead of failing on the first.
package validate

import "fmt"

// FieldError describes a single rejected field: which field, why, and the
// offending value as received.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors accumulates field errors across the checks of one request.
type Errors struct {
	fields []FieldError
}

// Add records a failure for a field.
func (e *Errors) Add(field, message string, value interface{}) {
	e.fields = append(e.fields, FieldError{Field: field, Message: message, Value: value})
}

// Addf records a failure with a formatted message.
func (e *Errors) Addf(field string, value interface{}, format string, args ...interface{}) {
	e.Add(field, fmt.Sprintf(format, args...), value)
}

// Any reports whether at least one check failed.
func (e *Errors) Any() bool { return len(e.fields) > 0 }

// Fields returns the collected failures in the order they were recorded.
func (e *Errors) Fields() []FieldError { return e.fields }
