package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// FuncDecl is a user function as declared in CUE, before its types and
// body are parsed.
//
//	functions: Clamp: {
//		params: [{name: "x", type: "i8"}, {name: "lo"}, {name: "hi"}]
//		returns: "i8"
//		body: "If(x < lo, lo, If(x > hi, hi, x))"
//	}
type FuncDecl struct {
	Path    string      `json:"path"`
	Params  []ParamDecl `json:"params"`
	Returns string      `json:"returns,omitempty"`
	Body    string      `json:"body"`
	Doc     string      `json:"doc,omitempty"`
	Pos     token.Pos   `json:"-"`
}

// ParamDecl is one declared parameter. An empty Type takes the type of the
// argument.
type ParamDecl struct {
	Name string    `json:"name"`
	Type string    `json:"type,omitempty"`
	Pos  token.Pos `json:"-"`
}

// CompileFunc parses a CUE value into a FuncDecl.
//
// The value should be the function struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`functions: Twice: {params: [{name: "x"}], body: "x + x"}`)
//	decl, err := CompileFunc(v.LookupPath(cue.ParsePath("functions.Twice")))
func CompileFunc(v cue.Value) (*FuncDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &FuncDecl{Pos: v.Pos()}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		decl.Path = labelName(sels[len(sels)-1])
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return nil, &CompileError{
			Field:   "body",
			Message: "body is required",
			Pos:     v.Pos(),
		}
	}
	body, err := bodyVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	decl.Body = body

	decl.Params, err = parseParams(v)
	if err != nil {
		return nil, err
	}

	if decl.Returns, err = optionalString(v, "returns"); err != nil {
		return nil, err
	}
	if decl.Doc, err = optionalString(v, "doc"); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseParams reads the params list. Each entry is either a struct with
// name and optional type, or a bare string naming an untyped parameter.
func parseParams(v cue.Value) ([]ParamDecl, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}
	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var params []ParamDecl
	for iter.Next() {
		pv := iter.Value()
		if name, err := pv.String(); err == nil {
			params = append(params, ParamDecl{Name: name, Pos: pv.Pos()})
			continue
		}
		nameVal := pv.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("params[%d].name", len(params)),
				Message: "parameter name is required",
				Pos:     pv.Pos(),
			}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		typ, err := optionalString(pv, "type")
		if err != nil {
			return nil, err
		}
		params = append(params, ParamDecl{Name: name, Type: typ, Pos: pv.Pos()})
	}
	return params, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// labelName returns the unquoted text of a field label, so that
// "Text.Pad": {...} declares the dotted path Text.Pad.
func labelName(sel cue.Selector) string {
	s := sel.String()
	if strings.HasPrefix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

// CompileError represents an error while reading a declaration from CUE.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
