package binder

import (
	"fmt"

	"github.com/roach88/quill/internal/syntax"
)

// Code identifies a diagnostic category. Codes are stable and safe to match
// on in tooling.
type Code string

const (
	// CodeUnknownOperator: no operator or user function has the called path.
	CodeUnknownOperator Code = "B001"

	// CodeFuzzyMatch: the path was unknown but close to a known operator,
	// which was used instead.
	CodeFuzzyMatch Code = "B002"

	// CodeArity: wrong number of arguments. Binding continues with the
	// nearest accepted arity.
	CodeArity Code = "B003"

	// CodeDeprecated: the operator has a replacement.
	CodeDeprecated Code = "B004"

	// CodeIllegalDirective: [with] or [guard] on a slot that takes none.
	CodeIllegalDirective Code = "B005"

	// CodeIllegalName: a name on a slot that forbids one, or a missing
	// required name.
	CodeIllegalName Code = "B006"

	// CodeNeedsSequence: a sequence item scope bound to a non-sequence.
	CodeNeedsSequence Code = "B007"

	// CodeNeedsTensor: a tensor item scope bound to a non-tensor.
	CodeNeedsTensor Code = "B008"

	// CodeRecursion: a user function calls itself, directly or not.
	CodeRecursion Code = "B009"

	// CodeVolatile: a volatile call where none is allowed.
	CodeVolatile Code = "B010"

	// CodeProcedure: a procedure call where none is allowed.
	CodeProcedure Code = "B011"

	// CodeUnknownName: a name that is not a scope, a global or a value.
	CodeUnknownName Code = "B012"

	// CodeTypeMismatch: an argument does not convert to the slot type.
	CodeTypeMismatch Code = "B013"

	// CodePromotionFailed: an accumulator type did not settle within
	// MaxPromotionRetries rebinds.
	CodePromotionFailed Code = "B014"

	// CodeBadField: a field read on a non-record or a missing field.
	CodeBadField Code = "B015"

	// CodeBadIndex: indexing a non-tensor, or with the wrong number or type
	// of indices.
	CodeBadIndex Code = "B016"
)

// Severity orders diagnostics.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one binding problem. Errors leave a placeholder node in the
// tree; warnings do not.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Range    syntax.Range

	// Suggestion is the proposed replacement path for fuzzy matches and
	// deprecated operators.
	Suggestion string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s %s [%d:%d]: %s", d.Severity, d.Code, d.Range.Start, d.Range.End, d.Message)
	if d.Suggestion != "" {
		s += fmt.Sprintf(" (did you mean %s?)", d.Suggestion)
	}
	return s
}

// IsError reports whether d is an error.
func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// HasCode reports whether any diagnostic has code c.
func HasCode(diags []Diagnostic, c Code) bool {
	return CountCode(diags, c) > 0
}

// CountCode returns the number of diagnostics with code c.
func CountCode(diags []Diagnostic, c Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == c {
			n++
		}
	}
	return n
}

var severities = map[Code]Severity{
	CodeFuzzyMatch: SeverityWarning,
	CodeDeprecated: SeverityWarning,
}

func severityOf(c Code) Severity {
	if s, ok := severities[c]; ok {
		return s
	}
	return SeverityError
}
