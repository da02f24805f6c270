package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

// Validation error codes (E100-E199)
const (
	// Function declaration errors (E101-E109)
	ErrInvalidPath      = "E101" // path is not a dotted identifier
	ErrEmptyBody        = "E102" // body is blank
	ErrInvalidParamName = "E103" // parameter name is not an identifier
	ErrInvalidType      = "E104" // invalid type string
	ErrDuplicateName    = "E105" // duplicate function or parameter name
	ErrBodySyntax       = "E106" // body does not parse
	ErrShadowed         = "E107" // path is taken by an operator

	// Catalog-level errors (E110-E119)
	ErrUnknownReplacement = "E110" // deprecation target is not an operator
	ErrDeprecatedLive     = "E111" // deprecated name is a live operator or function
	ErrInvalidGlobal      = "E112" // global name is not an identifier
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every declaration of c against the default operator
// table. Returns all errors found (does not fail-fast).
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError
	builtins := ops.Default()

	seen := make(map[string]bool)
	for i := range c.Decls {
		d := &c.Decls[i]
		field := "functions." + d.Path

		// E105: duplicate function path
		if seen[d.Path] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate function: %q", d.Path),
				Code:    ErrDuplicateName,
				Line:    lineOf(d.Pos),
			})
		}
		seen[d.Path] = true

		// E107: operators resolve before user functions
		if _, ok := builtins.LookupOp(d.Path); ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is an operator and would never be called", d.Path),
				Code:    ErrShadowed,
				Line:    lineOf(d.Pos),
			})
		}

		errs = append(errs, validateDecl(d, field)...)
	}

	for _, old := range slices.Sorted(maps.Keys(c.Deprecated)) {
		repl := c.Deprecated[old]
		field := "deprecated." + old
		if op, ok := builtins.LookupOp(repl); !ok || op.Path() != repl {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("replacement %q is not an operator", repl),
				Code:    ErrUnknownReplacement,
			})
		}
		_, isOp := builtins.LookupOp(old)
		if isOp || seen[old] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is still defined and cannot be deprecated", old),
				Code:    ErrDeprecatedLive,
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.Globals)) {
		field := "global." + name
		if !syntax.IsIdentifier(name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("global name %q is not an identifier", name),
				Code:    ErrInvalidGlobal,
			})
		}
		if _, err := types.Parse(c.Globals[name]); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidType,
			})
		}
	}

	return errs
}

// validateDecl checks a single function declaration.
func validateDecl(d *FuncDecl, field string) []ValidationError {
	var errs []ValidationError

	// E101: dotted identifier path
	if !isPath(d.Path) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid function path %q", d.Path),
			Code:    ErrInvalidPath,
			Line:    lineOf(d.Pos),
		})
	}

	params := make(map[string]bool)
	for i, p := range d.Params {
		pf := fmt.Sprintf("%s.params[%d]", field, i)

		// E103: parameter must be an identifier
		if !syntax.IsIdentifier(p.Name) {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("invalid parameter name %q", p.Name),
				Code:    ErrInvalidParamName,
				Line:    lineOf(p.Pos),
			})
		}

		// E105: duplicate parameter
		if params[p.Name] {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("duplicate parameter: %q", p.Name),
				Code:    ErrDuplicateName,
				Line:    lineOf(p.Pos),
			})
		}
		params[p.Name] = true

		// E104: parameter type must parse
		if p.Type != "" {
			if _, err := types.Parse(p.Type); err != nil {
				errs = append(errs, ValidationError{
					Field:   pf + ".type",
					Message: err.Error(),
					Code:    ErrInvalidType,
					Line:    lineOf(p.Pos),
				})
			}
		}
	}

	if d.Returns != "" {
		if _, err := types.Parse(d.Returns); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".returns",
				Message: err.Error(),
				Code:    ErrInvalidType,
				Line:    lineOf(d.Pos),
			})
		}
	}

	// E102 / E106: body must be present and parse
	if strings.TrimSpace(d.Body) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".body",
			Message: "body is required and must be non-empty",
			Code:    ErrEmptyBody,
			Line:    lineOf(d.Pos),
		})
	} else if _, err := syntax.Parse(d.Body); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".body",
			Message: err.Error(),
			Code:    ErrBodySyntax,
			Line:    lineOf(d.Pos),
		})
	}

	return errs
}

func isPath(p string) bool {
	if p == "" {
		return false
	}
	for _, part := range strings.Split(p, ".") {
		if !syntax.IsIdentifier(part) {
			return false
		}
	}
	return true
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}
