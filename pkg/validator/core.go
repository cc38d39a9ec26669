package validator

import (
	"errors"
	"slices"
	"strings"
)

// ValidationError is one failed rule. Key is the stable message key shown to
// users ("validation.email"); Message is the English fallback.
type ValidationError struct {
	Field   string
	Message string
	Key     string
	Values  map[string]any
}

// ValidationErrors is every failure produced by one Apply call, in rule order.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, e := range ve {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Field + ": " + e.Message)
	}
	return b.String()
}

func (ve ValidationErrors) Has(field string) bool {
	return slices.ContainsFunc(ve, func(e ValidationError) bool { return e.Field == field })
}

// Get returns the messages recorded for field.
func (ve ValidationErrors) Get(field string) []string {
	var out []string
	for _, e := range ve {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// Fields lists failed fields once each, in first-failure order.
func (ve ValidationErrors) Fields() []string {
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		if !slices.Contains(out, e.Field) {
			out = append(out, e.Field)
		}
	}
	return out
}

// Rule pairs a predicate with the error reported when it is false.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns ValidationErrors, or nil when all pass.
// Rules do not short-circuit.
func Apply(rules ...Rule) error {
	var failed ValidationErrors
	for _, r := range rules {
		if !r.Check() {
			failed = append(failed, r.Error)
		}
	}
	if failed == nil {
		return nil
	}
	return failed
}

// ExtractValidationErrors digs ValidationErrors out of a wrapped error.
func ExtractValidationErrors(err error) ValidationErrors {
	ve, _ := asValidation(err)
	return ve
}

func IsValidationError(err error) bool {
	_, ok := asValidation(err)
	return ok
}

func asValidation(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	ok := errors.As(err, &ve)
	return ve, ok
}
