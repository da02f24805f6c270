package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/syntax"
)

func codesOf(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	c := New(
		FuncDecl{Path: "Double", Params: []ParamDecl{{Name: "x", Type: "i8"}}, Returns: "i8", Body: "x * 2"},
		FuncDecl{Path: "Seq.Total", Params: []ParamDecl{{Name: "xs"}}, Body: "Sum(x: xs, x)"},
	)
	c.Globals["rate"] = "r8"
	c.Deprecated["Size"] = "Count"
	assert.Empty(t, Validate(c))
}

func TestValidate_Declarations(t *testing.T) {
	tests := []struct {
		name string
		decl FuncDecl
		want []string
	}{
		{
			name: "bad path",
			decl: FuncDecl{Path: "Bad-Name", Body: "1"},
			want: []string{ErrInvalidPath},
		},
		{
			name: "empty path segment",
			decl: FuncDecl{Path: "Text..Pad", Body: "1"},
			want: []string{ErrInvalidPath},
		},
		{
			name: "blank body",
			decl: FuncDecl{Path: "F", Body: "   "},
			want: []string{ErrEmptyBody},
		},
		{
			name: "body syntax",
			decl: FuncDecl{Path: "F", Body: "(1 + "},
			want: []string{ErrBodySyntax},
		},
		{
			name: "keyword parameter",
			decl: FuncDecl{Path: "F", Params: []ParamDecl{{Name: "null"}}, Body: "1"},
			want: []string{ErrInvalidParamName},
		},
		{
			name: "duplicate parameter",
			decl: FuncDecl{Path: "F", Params: []ParamDecl{{Name: "a"}, {Name: "a"}}, Body: "a"},
			want: []string{ErrDuplicateName},
		},
		{
			name: "bad parameter type",
			decl: FuncDecl{Path: "F", Params: []ParamDecl{{Name: "a", Type: "int"}}, Body: "a"},
			want: []string{ErrInvalidType},
		},
		{
			name: "bad return type",
			decl: FuncDecl{Path: "F", Returns: "r16", Body: "1"},
			want: []string{ErrInvalidType},
		},
		{
			name: "shadowed by operator",
			decl: FuncDecl{Path: "Abs", Params: []ParamDecl{{Name: "a"}}, Body: "a"},
			want: []string{ErrShadowed},
		},
		{
			name: "several problems at once",
			decl: FuncDecl{Path: "F", Params: []ParamDecl{{Name: "a", Type: "q"}, {Name: "a"}}, Body: ""},
			want: []string{ErrInvalidType, ErrDuplicateName, ErrEmptyBody},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(New(tt.decl))
			assert.ElementsMatch(t, tt.want, codesOf(errs))
		})
	}
}

func TestValidate_DuplicateFunction(t *testing.T) {
	c := New(
		FuncDecl{Path: "F", Body: "1"},
		FuncDecl{Path: "F", Body: "2"},
	)
	errs := Validate(c)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Equal(t, "functions.F", errs[0].Field)

	f, ok := c.LookupFunc("F")
	require.True(t, ok)
	assert.Equal(t, "1", syntax.Format(f.Body), "first declaration wins")
}

func TestValidate_CatalogSections(t *testing.T) {
	c := New(FuncDecl{Path: "Old", Body: "1"})
	c.Deprecated["Old"] = "Count"
	c.Deprecated["Gone"] = "Missing"
	c.Deprecated["Abs"] = "Sqrt"
	c.Deprecated["Size"] = "Tally"
	c.Globals["1x"] = "i8"
	c.Globals["ok"] = "bogus"

	errs := Validate(c)
	assert.ElementsMatch(t, []string{
		ErrUnknownReplacement, // Gone -> Missing
		ErrDeprecatedLive,     // Abs is an operator
		ErrDeprecatedLive,     // Old is a function
		ErrUnknownReplacement, // Tally is itself deprecated
		ErrInvalidGlobal,      // 1x
		ErrInvalidType,        // bogus
	}, codesOf(errs))
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "functions.F.body", Message: "body is required", Code: ErrEmptyBody}
	assert.Equal(t, "[E102] functions.F.body: body is required", e.Error())

	e.Line = 7
	assert.Equal(t, "[E102] line 7: functions.F.body: body is required", e.Error())
}
