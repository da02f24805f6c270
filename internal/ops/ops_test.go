package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/types"
)

func TestDefaultRegistry_LookupOp(t *testing.T) {
	r := Default()

	op, ok := r.LookupOp("Map")
	require.True(t, ok)
	assert.Same(t, Map, op)

	op, ok = r.LookupOp("Text.Len")
	require.True(t, ok)
	assert.Same(t, TextLen, op)

	_, ok = r.LookupOp("map")
	assert.False(t, ok, "lookup is case sensitive")

	_, ok = r.LookupOp("+")
	assert.False(t, ok, "syntax operators are not registered by name")
}

func TestDefaultRegistry_Deprecation(t *testing.T) {
	r := Default()

	op, ok := r.LookupOp("Tally")
	require.True(t, ok)
	assert.Same(t, Count, op)

	repl, ok := r.Replacement("Tally")
	require.True(t, ok)
	assert.Equal(t, "Count", repl)

	_, ok = r.Replacement("Count")
	assert.False(t, ok)

	assert.NotContains(t, r.Paths(), "Tally")
}

func TestRegistry_DeprecateErrors(t *testing.T) {
	r := Default()
	assert.Error(t, r.Deprecate("Old", "NoSuchOp"))
	assert.Error(t, r.Deprecate("Map", "ForEach"))
	assert.Error(t, r.Register(Map))
}

func TestRegistry_Namespaces(t *testing.T) {
	r := Default()
	assert.True(t, r.IsNamespace("Text"))
	assert.True(t, r.IsNamespace("Tensor"))
	assert.True(t, r.IsNamespace("Seq"))
	assert.True(t, r.IsNamespace("Bits"))
	assert.False(t, r.IsNamespace("Map"))
	assert.False(t, r.IsNamespace("Text.Len"))
}

func TestRegistry_Globals(t *testing.T) {
	r := Default()
	_, ok := r.LookupGlobal("Limit")
	assert.False(t, ok)

	r.SetGlobal("Limit", types.I4)
	typ, ok := r.LookupGlobal("Limit")
	require.True(t, ok)
	assert.Equal(t, types.I4, typ)
}

func TestRegistry_Fuzzy(t *testing.T) {
	r := Default()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"map", "Map", true},
		{"Mpa", "Map", true},
		{"Fodl", "Fold", true},
		{"text.upper", "Text.Upper", true},
		{"Filtr", "Filter", true},
		{"Quux", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.Fuzzy(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("abc", "abc"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 1, levenshteinDistance("Sum", "Sun"))
	assert.Equal(t, 2, levenshteinDistance("Map", "Mpa"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 1, levenshteinDistance("café", "cafe"), "distance counts runes")
}

func TestSuggest_OrdersByDistanceThenName(t *testing.T) {
	got := suggest("Sun", []string{"Sum", "Run", "Sort", "Nothing"}, func(s string) string { return s })
	assert.Equal(t, []string{"Run", "Sum"}, got)
}

func TestPipeNamespace(t *testing.T) {
	assert.Equal(t, NamespaceText, PipeNamespace(types.Text))
	assert.Equal(t, NamespaceText, PipeNamespace(types.Text.ToOpt()))
	assert.Equal(t, NamespaceTensor, PipeNamespace(types.Tensor(types.R8, 2)))
	assert.Equal(t, NamespaceSeq, PipeNamespace(types.Sequence(types.I8)))
	assert.Equal(t, "", PipeNamespace(types.I8))
}

func TestOp_Arity(t *testing.T) {
	assert.True(t, Sum.AcceptsArity(1))
	assert.True(t, Sum.AcceptsArity(2))
	assert.False(t, Sum.AcceptsArity(3))
	assert.Equal(t, 2, Sum.ClampArity(5))
	assert.Equal(t, 2, Map.ClampArity(1))
	assert.Equal(t, 7, Map.ClampArity(7))

	lo, hi := Now.Arity()
	assert.Equal(t, 0, lo)
	assert.Equal(t, 0, hi)
}

func TestOp_Slots(t *testing.T) {
	ss := Map.Slots(3)
	require.Len(t, ss, 3)
	assert.Equal(t, ir.ScopeSequenceItem, ss[0].Scope)
	assert.Equal(t, 0, ss[0].NestStart)
	assert.Equal(t, 1, ss[1].NestStart, "zip sources do not see each other")
	assert.True(t, ss[2].Loop)
	assert.True(t, ss[2].Index)
	assert.True(t, Map.IsLoopSlot(2, 3))
	assert.False(t, Map.IsLoopSlot(0, 3))
	assert.False(t, Map.IsLoopSlot(5, 3))

	fold := Fold.Slots(3)
	assert.Equal(t, ir.ScopeIterate, fold[1].Scope)
	assert.Equal(t, 1, fold[1].NestStart, "the seed does not see the item")

	assert.True(t, Filter.Slots(2)[1].NoVolatile)
	assert.False(t, Sum.Slots(2)[1].NoVolatile)
	assert.Equal(t, ir.ScopeNone, Sum.Slots(1)[0].Scope)

	with := With.Slots(3)
	assert.True(t, with[0].Directive)
	assert.True(t, with[1].Directive)
	assert.False(t, with[2].Directive)
	assert.Equal(t, NameRequired, SetFields.Slots(3)[2].Name)
}

func TestOp_LiftsFirstScope(t *testing.T) {
	assert.True(t, Guard.LiftsFirstScope(2))
	assert.True(t, SetFields.LiftsFirstScope(2))
	assert.False(t, With.LiftsFirstScope(2))
	assert.False(t, Map.LiftsFirstScope(2))
	assert.False(t, Count.LiftsFirstScope(1))
}

func TestLifts_Has(t *testing.T) {
	assert.True(t, LiftAll.Has(LiftSeq|LiftOpt))
	assert.False(t, (LiftSeq | LiftTensor).Has(LiftOpt))
	assert.True(t, LiftNone.Has(LiftNone))
}

func TestSpecialize_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   *Op
		args []types.DType
		ret  types.DType
		want types.DType
	}{
		{"add ints widen", Add, []types.DType{types.I4, types.I4}, types.I8, types.I8},
		{"add mixed", Add, []types.DType{types.I4, types.R4}, types.R8, types.R8},
		{"mul unsigned", Mul, []types.DType{types.U1, types.U2}, types.U8, types.U8},
		{"add null", Add, []types.DType{types.Vac, types.I4}, types.I8, types.I8},
		{"divide", Divide, []types.DType{types.I4, types.I4}, types.R8, types.R8},
		{"bitwise bits", And, []types.DType{types.Bit, types.Bit}, types.Bit, types.Bit},
		{"bitwise ints", Or, []types.DType{types.I4, types.I2}, types.I4, types.I4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := tt.op.Specialize(SpecContext{Args: tt.args, Scopes: make([]*ir.Scope, len(tt.args))})
			require.Empty(t, sig.Fail)
			assert.Equal(t, tt.ret, sig.Ret)
			for _, w := range sig.Want {
				assert.Equal(t, tt.want, w)
			}
		})
	}
}

func TestSpecialize_Failures(t *testing.T) {
	none := func(n int) []*ir.Scope { return make([]*ir.Scope, n) }

	sig := Add.Specialize(SpecContext{Args: []types.DType{types.Text, types.I8}, Scopes: none(2)})
	assert.Contains(t, sig.Fail, "numeric")

	sig = Div.Specialize(SpecContext{Args: []types.DType{types.R8, types.I8}, Scopes: none(2)})
	assert.Contains(t, sig.Fail, "integers")

	sig = Count.Specialize(SpecContext{Args: []types.DType{types.I8}, Scopes: none(1)})
	assert.Contains(t, sig.Fail, "sequence")

	sig = TextLen.Specialize(SpecContext{Args: []types.DType{types.I8}, Scopes: none(1)})
	assert.NotEmpty(t, sig.Fail)
}

func TestSpecialize_Concat(t *testing.T) {
	none := make([]*ir.Scope, 2)

	sig := Concat.Specialize(SpecContext{Args: []types.DType{types.Text, types.Text}, Scopes: none})
	assert.Equal(t, types.Text, sig.Ret)

	a := types.Tuple(types.I8)
	b := types.Tuple(types.Text, types.Bit)
	sig = Concat.Specialize(SpecContext{Args: []types.DType{a, b}, Scopes: none})
	assert.Equal(t, types.Tuple(types.I8, types.Text, types.Bit), sig.Ret)

	ra := types.Record(types.Field{Name: "A", Type: types.I8}, types.Field{Name: "B", Type: types.I8})
	rb := types.Record(types.Field{Name: "B", Type: types.Text})
	sig = Concat.Specialize(SpecContext{Args: []types.DType{ra, rb}, Scopes: none})
	assert.Equal(t, types.MustParse("{A:i8, B:s}"), sig.Ret)
}

func TestSpecialize_Compare(t *testing.T) {
	op := NewCompareOp([]ir.CmpOp{ir.CmpLt, ir.CmpLe})
	assert.True(t, op.AcceptsArity(3))
	assert.False(t, op.AcceptsArity(2))

	sig := op.Specialize(SpecContext{
		Args:   []types.DType{types.I4, types.R8.ToOpt(), types.Vac},
		Scopes: make([]*ir.Scope, 3),
	})
	require.Empty(t, sig.Fail)
	assert.Equal(t, types.Bit, sig.Ret)
	assert.Equal(t, []types.DType{types.R8, types.R8.ToOpt(), types.R8.ToOpt()}, sig.Want)

	sig = op.Specialize(SpecContext{
		Args:   []types.DType{types.Tuple(types.I8), types.Tuple(types.I8), types.Tuple(types.I8)},
		Scopes: make([]*ir.Scope, 3),
	})
	assert.NotEmpty(t, sig.Fail)
}

func TestSpecialize_ScopedOps(t *testing.T) {
	items := types.Sequence(types.I4)
	item := ir.NewScope(ir.ScopeSequenceItem, types.I4, "x")

	sig := Map.Specialize(SpecContext{
		Args:   []types.DType{items, types.Text},
		Scopes: []*ir.Scope{item, nil},
	})
	assert.Equal(t, types.Sequence(types.Text), sig.Ret)
	assert.Equal(t, []types.DType{types.I4, types.Text}, sig.Want)

	sig = Filter.Specialize(SpecContext{
		Args:   []types.DType{items, types.Bit},
		Scopes: []*ir.Scope{item, nil},
	})
	assert.Equal(t, items, sig.Ret)
	assert.Equal(t, []types.DType{types.I4, types.Bit}, sig.Want)

	sig = Sum.Specialize(SpecContext{Args: []types.DType{items}, Scopes: []*ir.Scope{nil}})
	assert.Equal(t, types.I8, sig.Ret)
	assert.Equal(t, []types.DType{types.Sequence(types.I8)}, sig.Want)

	sig = Sum.Specialize(SpecContext{
		Args:   []types.DType{items, types.R4},
		Scopes: []*ir.Scope{item, nil},
	})
	assert.Equal(t, types.R8, sig.Ret)
	assert.Equal(t, []types.DType{types.I4, types.R8}, sig.Want)
}

func TestSpecialize_FoldPromotion(t *testing.T) {
	items := types.Sequence(types.R8)
	item := ir.NewScope(ir.ScopeSequenceItem, types.R8, "x")
	acc := ir.NewScope(ir.ScopeIterate, types.I4, "acc")

	sig := Fold.Specialize(SpecContext{
		Args:   []types.DType{items, types.I4, types.R8},
		Scopes: []*ir.Scope{item, acc, nil},
	})
	require.Empty(t, sig.Fail)
	assert.Equal(t, types.R8, sig.Want[1], "accumulator must widen")

	wide := acc.WithType(types.R8)
	sig = Fold.Specialize(SpecContext{
		Args:   []types.DType{items, types.I4, types.R8},
		Scopes: []*ir.Scope{item, wide, nil},
	})
	assert.Equal(t, types.R8, sig.Ret)
	assert.Equal(t, []types.DType{types.R8, types.R8, types.R8}, sig.Want)
}

func TestSpecialize_Guard(t *testing.T) {
	g := ir.NewScope(ir.ScopeGuard, types.I8, "x")
	w := ir.NewScope(ir.ScopeWith, types.I8, "y")

	sig := Guard.Specialize(SpecContext{
		Args:   []types.DType{types.I8.ToOpt(), types.Text},
		Scopes: []*ir.Scope{g, nil},
	})
	assert.Equal(t, types.Text.ToOpt(), sig.Ret)
	assert.Equal(t, types.I8, sig.Want[0])

	sig = With.Specialize(SpecContext{
		Args:   []types.DType{types.I8, types.Text},
		Scopes: []*ir.Scope{w, nil},
	})
	assert.Equal(t, types.Text, sig.Ret)
}

func TestBuild(t *testing.T) {
	one := ir.NewInt64(1, types.I8)
	two := ir.NewInt64(2, types.I8)

	n := Sub.Build(BuildContext{Ret: types.I8, Args: []ir.Node{one, two}})
	assert.Equal(t, "Add(1:i8, -2:i8)", ir.Dump(n))

	n = Div.Build(BuildContext{Ret: types.I8, Args: []ir.Node{one, two}})
	assert.Equal(t, "IntDiv(1:i8, 2:i8)", ir.Dump(n))

	n = Now.Build(BuildContext{Ret: types.I8})
	call, ok := n.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, ir.Volatile, call.Purity)
	assert.True(t, call.Mask().IsImpure())

	n = NewCompareOp([]ir.CmpOp{ir.CmpLt}).Build(BuildContext{Ret: types.Bit, Args: []ir.Node{one, two}})
	assert.Equal(t, "Cmp(1:i8 < 2:i8)", ir.Dump(n))
}

func TestBuiltins_UniquePaths(t *testing.T) {
	seen := make(map[string]bool)
	for _, op := range Builtins() {
		assert.False(t, seen[op.Path()], "duplicate %s", op.Path())
		seen[op.Path()] = true
		assert.True(t, isIdentPath(op.Path()), op.Path())
	}
	for tok, op := range SyntaxOps {
		assert.Equal(t, tok, op.Path())
	}
}
