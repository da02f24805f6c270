package harness

import (
	"fmt"
	"strings"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Seq       int64  `json:"seq"`
	Name      string `json:"name"`
	Expr      string `json:"expr"`
	SessionID string `json:"session_id,omitempty"`

	Type    string `json:"type,omitempty"`
	Bound   string `json:"bound,omitempty"`
	Reduced string `json:"reduced,omitempty"`

	// Diagnostics and Warnings hold codes; Messages holds the full text of
	// both, diagnostics first.
	Diagnostics []string `json:"diagnostics"`
	Warnings    []string `json:"warnings"`
	Messages    []string `json:"messages,omitempty"`

	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

func (cr *CaseResult) fail(format string, args ...any) {
	cr.Errors = append(cr.Errors, fmt.Sprintf(format, args...))
	cr.Pass = false
}

func (cr *CaseResult) mismatch(field, expected, actual string) {
	err := &MismatchError{Case: cr.Name, Field: field, Expected: expected, Actual: actual}
	cr.Errors = append(cr.Errors, err.Error())
	cr.Pass = false
}

// Result is the outcome of running a suite.
type Result struct {
	Suite string       `json:"suite"`
	Pass  bool         `json:"pass"`
	Cases []CaseResult `json:"cases"`

	// Errors collects the errors of every failing case, prefixed by the
	// case name.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite:  suite,
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// Add appends a case outcome, failing the result if the case failed.
func (r *Result) Add(cr CaseResult) {
	r.Cases = append(r.Cases, cr)
	if cr.Pass {
		return
	}
	r.Pass = false
	for _, e := range cr.Errors {
		r.Errors = append(r.Errors, cr.Name+": "+e)
	}
}

// Case returns the result of the named case.
func (r *Result) Case(name string) (CaseResult, bool) {
	for _, cr := range r.Cases {
		if cr.Name == name {
			return cr, true
		}
	}
	return CaseResult{}, false
}

// MismatchError reports an expectation that did not hold.
type MismatchError struct {
	Case     string
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s mismatch\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}
