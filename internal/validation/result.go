package validation

import (
	"strings"
)

// FieldError is a single message attached to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// FullMessage prefixes the message with the field label ("Email has already been taken").
func (fe FieldError) FullMessage() string {
	if fe.Label == "" {
		return fe.Message
	}
	return fe.Label + " " + fe.Message
}

// Result accumulates validation failures for one record.
// A non-empty *Result is also an error.
type Result struct {
	Errors []FieldError
}

// Add appends a message for field.
func (r *Result) Add(field, label, message string) {
	if label == "" {
		label = Humanize(field)
	}
	r.Errors = append(r.Errors, FieldError{Field: field, Label: label, Message: message})
}

// Merge appends every error from other.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// HasErrors reports whether any message was recorded.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// On returns the bare messages recorded for field.
func (r *Result) On(field string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, fe := range r.Errors {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

// FullMessages returns every message prefixed with its label.
func (r *Result) FullMessages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		out = append(out, fe.FullMessage())
	}
	return out
}

// First returns the first full message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].FullMessage()
}

// All joins every full message with "; ".
func (r *Result) All() string {
	return strings.Join(r.FullMessages(), "; ")
}

func (r *Result) Error() string {
	return "validation failed: " + r.All()
}

// Err returns r as an error, or nil when nothing failed.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return r
}

// Humanize turns a column name into a label: "first_name" -> "First name".
func Humanize(field string) string {
	s := strings.TrimSuffix(field, "_id")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
