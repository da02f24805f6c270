package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

func testHost() *ops.Registry {
	r := ops.Default()
	r.SetGlobal("s", types.MustParse("i8*"))
	r.SetGlobal("os", types.MustParse("i8?*"))
	r.SetGlobal("o", types.MustParse("i8?"))
	r.SetGlobal("r", types.MustParse("{A:i8, B:s}"))
	r.SetGlobal("rs", types.MustParse("{A:i8}*"))
	r.SetGlobal("m", types.MustParse("i8[*,*]"))
	r.SetGlobal("name", types.Text)
	return r
}

func bind(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	expr, err := syntax.Parse(src)
	require.NoError(t, err)
	base := []Option{WithHost(testHost()), WithIDGenerator(NewSequenceGenerator("session-1"))}
	return Bind(expr, append(base, opts...)...)
}

// bindOK binds src and requires that it produced no diagnostics.
func bindOK(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	res := bind(t, src, opts...)
	require.Empty(t, res.Diagnostics, "diagnostics for %s", src)
	return res
}

func TestBind_Literals(t *testing.T) {
	tests := []struct {
		src  string
		dump string
		typ  string
	}{
		{"1", "1:i4", "i4"},
		{"5000000000", "5000000000:i8", "i8"},
		{"1.5", "1.5:r8", "r8"},
		{"true", "true:b", "b"},
		{"null", "null:v", "v"},
		{"[1, 2]", "[1:i4, 2:i4]", "i4*"},
		{"[1, null]", "[Cast(1:i4):i4?, Cast(null:v):i4?]", "i4?*"},
		{"[]", "[]:v*", "v*"},
		{"(1, true)", "(1:i4, true:b)", "(i4, b)"},
		{"{A: 1}", "{A: 1:i4}", "{A:i4}"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := bindOK(t, tt.src)
			assert.Equal(t, tt.dump, ir.Dump(res.Root))
			assert.Equal(t, tt.typ, res.Root.Type().String())
		})
	}
}

func TestBind_SessionID(t *testing.T) {
	res := bindOK(t, "1")
	assert.Equal(t, "session-1", res.SessionID)

	res = Bind(syntax.MustParse("1"))
	assert.Len(t, res.SessionID, 36, "default sessions are UUIDs")
}

func TestBind_Operators(t *testing.T) {
	tests := []struct {
		src  string
		dump string
	}{
		{"1 + 2", "Add(Cast(1:i4):i8, Cast(2:i4):i8)"},
		{"s - 1", "Map(_$1: s, Add(_$1, -Cast(1:i4):i8))"},
		{"-1", "Neg(Cast(1:i4):i8)"},
		{"not true", "Not(true:b)"},
		{"1 < 2", "Cmp(1:i4 < 2:i4)"},
		{"Div(7, 2)", "IntDiv(Cast(7:i4):i8, Cast(2:i4):i8)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := bindOK(t, tt.src)
			assert.Equal(t, tt.dump, ir.Dump(res.Root))
		})
	}
}

func TestBind_LiftsUnaryOverSequence(t *testing.T) {
	res := bindOK(t, "Abs(s)")

	call, ok := res.Root.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "Map", call.Op.Path())
	assert.Equal(t, types.Sequence(types.I8), call.Type())

	inner, ok := call.Args[1].(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "Abs", inner.Op.Path())
	assert.Equal(t, types.I8, inner.Args[0].Type(), "wrapped argument has the item type")

	ref, ok := inner.Args[0].(*ir.ScopeRef)
	require.True(t, ok)
	assert.Same(t, call.Scopes[0], ref.Scope)
	assert.Equal(t, "Map(_$1: s, Abs(_$1))", ir.Dump(res.Root))
}

func TestBind_LiftsOptional(t *testing.T) {
	res := bindOK(t, "o + 1")
	assert.Equal(t, "Guard(_$1: o, Add(_$1, Cast(1:i4):i8))", ir.Dump(res.Root))
	assert.Equal(t, "i8?", res.Root.Type().String())

	res = bindOK(t, "1 + null")
	assert.Equal(t, "Guard(_$1: Cast(null:v):i8?, Add(Cast(1:i4):i8, _$1))", ir.Dump(res.Root))
	assert.Equal(t, "i8?", res.Root.Type().String())
}

func TestBind_LiftsZipSequences(t *testing.T) {
	res := bindOK(t, "s + s")
	assert.Equal(t, "Map(_$1: s, _$2: s, Add(_$1, _$2))", ir.Dump(res.Root))
}

func TestBind_LiftsTensor(t *testing.T) {
	res := bindOK(t, "Abs(m)")
	assert.Equal(t, "Tensor.ForEach(_$1: m, Abs(_$1))", ir.Dump(res.Root))
	assert.Equal(t, "i8[*,*]", res.Root.Type().String())
}

func TestBind_FoldPromotesOnce(t *testing.T) {
	res := bindOK(t, "Fold(x: Range(1, 11), y: 1, x * y)")

	assert.Equal(t, 1, res.Promotions)
	assert.Equal(t, types.I8, res.Root.Type())
	assert.Equal(t,
		"Fold(x$1: Range(Cast(1:i4):i8, Cast(11:i4):i8), y$2: Cast(1:i4):i8, Mul(x$1, y$2))",
		ir.Dump(res.Root))

	call := res.Root.(*ir.Call)
	assert.Equal(t, ir.ScopeIterate, call.Scopes[1].Kind())
	assert.Equal(t, types.I8, call.Scopes[1].Type())
}

func TestBind_FoldWithoutPromotion(t *testing.T) {
	res := bindOK(t, "Fold(x: [1.5, 2.5], acc: 0.0, acc + x)")
	assert.Zero(t, res.Promotions)
	assert.Equal(t, types.R8, res.Root.Type())
}

func TestBind_Scopes(t *testing.T) {
	tests := []struct {
		src  string
		dump string
		typ  string
	}{
		{"Map(s, it * 2)", "Map(s$1: s, Mul(s$1, Cast(2:i4):i8))", "i8*"},
		{"Map(x: s, x + #)", "Map[#_$1](x$2: s, Add(x$2, _$1))", "i8*"},
		{"Map(x: s, #x)", "Map[#_$1](x$2: s, _$1)", "i8*"},
		{"Guard(o, o + 1)", "Guard(o$1: o, Add(o$1, Cast(1:i4):i8))", "i8?"},
		{"With(a: 1, b: a + 1, b)", "With(a$1: 1:i4, b$2: Add(Cast(a$1):i8, Cast(1:i4):i8), b$2)", "i8"},
		{"Generate(i: 3, i * i)", "Generate(i$1: Cast(3:i4):i8, Mul(i$1, i$1))", "i8*"},
		{"Filter(x: s, x > 1)", "Filter(x$1: s, Cmp(x$1 > Cast(1:i4):i8))", "i8*"},
		{"Sum(s)", "Sum(s)", "i8"},
		{"SetFields(r, C: 1)", "SetFields(r$1: r, C: 1:i4)", "{A:i8, B:s, C:i4}"},
		{"Guard(os, os + 1)", "Map(_$1: os, Guard(os$2: _$1, Add(os$2, Cast(1:i4):i8)))", "i8?*"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := bindOK(t, tt.src)
			assert.Equal(t, tt.dump, ir.Dump(res.Root))
			assert.Equal(t, tt.typ, res.Root.Type().String())
		})
	}
}

func TestBind_GuardOnNonNullBecomesWith(t *testing.T) {
	res := bindOK(t, "Guard(x: 1, x)")
	call := res.Root.(*ir.Call)
	assert.Equal(t, ir.ScopeWith, call.Scopes[0].Kind())
	assert.Equal(t, types.I4, res.Root.Type())
}

func TestBind_Directives(t *testing.T) {
	res := bindOK(t, "With([guard] x: o, x)")
	call := res.Root.(*ir.Call)
	assert.Equal(t, ir.ScopeGuard, call.Scopes[0].Kind())
	assert.Equal(t, "i8?", res.Root.Type().String())

	res = bind(t, "Map([with] x: s, x)")
	assert.True(t, HasCode(res.Diagnostics, CodeIllegalDirective))
}

func TestBind_Names(t *testing.T) {
	tests := []struct {
		src  string
		dump string
		typ  string
	}{
		{"r.A", "r.A", "i8"},
		{"r.B", "r.B", "s"},
		{"rs.A", "Map(_$1: rs, _$1.A)", "i8*"},
		{"{A: 1}.A", "1:i4", "i4"},
		{"m[0, 1]", "m[Cast(0:i4):i8, Cast(1:i4):i8]", "i8"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := bindOK(t, tt.src)
			assert.Equal(t, tt.dump, ir.Dump(res.Root))
			assert.Equal(t, tt.typ, res.Root.Type().String())
		})
	}
}

func TestBind_Pipe(t *testing.T) {
	res := bindOK(t, "name->Len()")
	call := res.Root.(*ir.Call)
	assert.Equal(t, "Text.Len", call.Op.Path())
	assert.Equal(t, types.I8, call.Type())

	res = bindOK(t, "s->Reverse()")
	assert.Equal(t, "Seq.Reverse(s)", ir.Dump(res.Root))

	res = bindOK(t, "s->Map(it + 1)")
	assert.Equal(t, "Map(s$1: s, Add(s$1, Cast(1:i4):i8))", ir.Dump(res.Root))
}

func TestBind_Diagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code Code
		opts []Option
	}{
		{"unknown operator", "Frobnicate(1)", CodeUnknownOperator, nil},
		{"too many args", "Abs(1, 2)", CodeArity, nil},
		{"too few args", "Map(s)", CodeArity, nil},
		{"directive on plain slot", "Abs([with] 1)", CodeIllegalDirective, nil},
		{"name on plain slot", "Abs(x: 1)", CodeIllegalName, nil},
		{"missing field name", "SetFields(r, 1)", CodeIllegalName, nil},
		{"map over scalar", "Map(1, it)", CodeNeedsSequence, nil},
		{"tensor loop over scalar", "Tensor.ForEach(1, it)", CodeNeedsTensor, nil},
		{"volatile", "Now()", CodeVolatile, nil},
		{"volatile predicate", "Filter(s, Now() > 0)", CodeVolatile, []Option{WithAllowVolatile()}},
		{"procedure", "Print(1)", CodeProcedure, nil},
		{"unknown name", "nope", CodeUnknownName, nil},
		{"namespace as value", "Text", CodeUnknownName, nil},
		{"index outside loop", "#", CodeUnknownName, nil},
		{"type mismatch", "Text.Len(1)", CodeTypeMismatch, nil},
		{"bad condition", `If("yes", 2, 3)`, CodeTypeMismatch, nil},
		{"missing field", "r.C", CodeBadField, nil},
		{"field of scalar", "(1).A", CodeBadField, nil},
		{"rank mismatch", "m[1]", CodeBadIndex, nil},
		{"text index", "m[1, \"a\"]", CodeBadIndex, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := bind(t, tt.src, tt.opts...)
			require.NotNil(t, res.Root, "binding always yields a tree")
			assert.Equal(t, 1, CountCode(res.Diagnostics, tt.code), "diagnostics: %v", res.Diagnostics)
			assert.True(t, res.HasErrors())
		})
	}
}

func TestBind_ErrorPlaceholders(t *testing.T) {
	res := bind(t, "Frobnicate(1) + 1")
	assert.Equal(t, ir.KindError, res.Root.Kind())
	assert.Len(t, res.Diagnostics, 1, "errors do not cascade")

	res = bind(t, "Map(s)")
	assert.Equal(t, "g*", res.Root.Type().String())
	assert.True(t, res.Root.Mask().Has(ir.KindMissing))

	res = bind(t, "Text")
	assert.Equal(t, ir.KindNamespace, res.Root.Kind())
}

func TestBind_FuzzyMatch(t *testing.T) {
	res := bind(t, "Sqr(4)")
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, CodeFuzzyMatch, d.Code)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "Sqrt", d.Suggestion)
	assert.False(t, res.HasErrors())
	assert.Equal(t, types.R8, res.Root.Type())

	res = bind(t, "map(s, it)")
	assert.Equal(t, 1, CountCode(res.Diagnostics, CodeFuzzyMatch))
	assert.Equal(t, "Map", res.Diagnostics[0].Suggestion)
}

func TestBind_Deprecated(t *testing.T) {
	res := bind(t, "Tally(s)")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeDeprecated, res.Diagnostics[0].Code)
	assert.Equal(t, "Count", res.Diagnostics[0].Suggestion)
	assert.False(t, res.HasErrors())
	assert.Equal(t, "Count(s)", ir.Dump(res.Root))
}

func TestBind_AllowedImpurity(t *testing.T) {
	res := bindOK(t, "Now()", WithAllowVolatile())
	assert.True(t, res.Root.Mask().IsImpure())

	res = bindOK(t, "Print(1)", WithAllowProcedures())
	assert.NotZero(t, res.Root.Mask()&ir.MaskProcedure)
}

func TestBind_UserFunctions(t *testing.T) {
	funcs := FuncMap{
		"Double": {
			Path:   "Double",
			Params: []Param{{Name: "x", Type: types.I8}},
			Body:   syntax.MustParse("x * 2"),
		},
		"Leak": {
			Path: "Leak",
			Body: syntax.MustParse("s"),
		},
		"Clock": {
			Path: "Clock",
			Body: syntax.MustParse("Now()"),
		},
		"Twice": {
			Path:    "Twice",
			Params:  []Param{{Name: "v"}},
			Returns: types.I8,
			Body:    syntax.MustParse("Double(v) + Double(v)"),
		},
	}

	res := bindOK(t, "Double(3)", WithFuncs(funcs))
	assert.Equal(t, "With(x$1: Cast(3:i4):i8, Mul(x$1, Cast(2:i4):i8))", ir.Dump(res.Root))

	res = bindOK(t, "Twice(1)", WithFuncs(funcs))
	assert.Equal(t, types.I8, res.Root.Type())

	res = bind(t, "Leak()", WithFuncs(funcs))
	assert.Equal(t, 1, CountCode(res.Diagnostics, CodeUnknownName), "function bodies cannot see globals")

	res = bind(t, "Clock()", WithFuncs(funcs), WithAllowVolatile())
	assert.Equal(t, 1, CountCode(res.Diagnostics, CodeVolatile), "function bodies must be pure")
}

func TestBind_PromotionsArePerExpansion(t *testing.T) {
	funcs := FuncMap{
		"Total": {
			Path:   "Total",
			Params: []Param{{Name: "v"}},
			Body:   syntax.MustParse("Fold(a: v, acc: 0, acc + a)"),
		},
	}

	res := bindOK(t, "Total([1, 2])", WithFuncs(funcs))
	assert.Equal(t, types.I8, res.Root.Type())

	res = bindOK(t, "(Total([1.5]), Total([1, 2]))", WithFuncs(funcs))
	assert.Equal(t, "(r8, i8)", res.Root.Type().String())
	assert.Equal(t, 2, res.Promotions, "each expansion promotes its own accumulator")

	res = bindOK(t, "(Total([1, 2]), Total([1.5]))", WithFuncs(funcs))
	assert.Equal(t, "(i8, r8)", res.Root.Type().String(), "order of expansions does not matter")
}

func TestBind_RecursionReportedOnce(t *testing.T) {
	funcs := FuncMap{
		"Loop": {
			Path:   "Loop",
			Params: []Param{{Name: "n", Type: types.I8}},
			Body:   syntax.MustParse("Loop(n) + 1"),
		},
		"Ping": {Path: "Ping", Body: syntax.MustParse("Pong()")},
		"Pong": {Path: "Pong", Body: syntax.MustParse("Ping()")},
	}

	res := bind(t, "Loop(3)", WithFuncs(funcs))
	assert.Equal(t, 1, CountCode(res.Diagnostics, CodeRecursion))
	assert.Len(t, res.Errors(), 1)
	assert.True(t, res.Root.Mask().HasErrors())

	res = bind(t, "Ping()", WithFuncs(funcs))
	assert.Equal(t, 1, CountCode(res.Diagnostics, CodeRecursion))
}

func TestBind_DoesNotMutateInput(t *testing.T) {
	expr := syntax.MustParse("Fold(x: Range(1, 11), y: 1, x * y)")
	before := syntax.Format(expr)
	a := Bind(expr, WithHost(testHost()))
	b := Bind(expr, WithHost(testHost()))
	assert.Equal(t, before, syntax.Format(expr))
	assert.True(t, ir.Equivalent(a.Root, b.Root, nil, nil), "binding is deterministic up to scope identity")
	assert.NotEqual(t, a.SessionID, b.SessionID)
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Code:       CodeFuzzyMatch,
		Severity:   SeverityWarning,
		Message:    `unknown operator "Sqr", using Sqrt`,
		Range:      syntax.Range{Start: 0, End: 3},
		Suggestion: "Sqrt",
	}
	assert.Equal(t, `warning B002 [0:3]: unknown operator "Sqr", using Sqrt (did you mean Sqrt?)`, d.String())
	assert.False(t, d.IsError())
}

func TestSequenceGenerator_Exhausted(t *testing.T) {
	g := NewSequenceGenerator("a")
	assert.Equal(t, "a", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
