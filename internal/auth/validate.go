package auth

import "fmt"

// ValidationError is one authorization or business-rule failure with
// the HTTP status it maps to. Messages name the offending identifier
// but never echo passwords or token values.
type ValidationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is the outcome of a predicate or a chain. Empty
// means the check passed.
type ValidationErrors []ValidationError

// OK is the success outcome.
func OK() ValidationErrors { return nil }

// Invalid builds a single-error outcome.
func Invalid(code int, format string, args ...any) ValidationErrors {
	return ValidationErrors{{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// Failed reports whether the outcome carries at least one error.
func (ve ValidationErrors) Failed() bool { return len(ve) > 0 }

// Status returns the status code of the first error, or 0 on success.
func (ve ValidationErrors) Status() int {
	if len(ve) == 0 {
		return 0
	}
	return ve[0].Code
}

// Rule is one named authorization predicate, pre-bound to its resolved
// argument values. Rules must be pure: no I/O, no mutation.
type Rule func() ValidationErrors

// Chain evaluates rules in declared order and stops at the first
// failure, returning only its errors. Later rules may assume earlier
// ones passed (object existence before object ownership), so they are
// never evaluated after a failure.
func Chain(rules ...Rule) ValidationErrors {
	for _, rule := range rules {
		if errs := rule(); errs.Failed() {
			return errs
		}
	}
	return OK()
}
