package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/types"
)

// testOp is a minimal operator for building Call nodes in tests.
type testOp struct {
	path string
	loop int
}

func (o *testOp) Path() string                { return o.path }
func (o *testOp) IsLoopSlot(slot, _ int) bool { return slot == o.loop }

var mapOp = &testOp{path: "Map", loop: 1}

func i8(n int64) *Constant { return NewInt64(n, types.I8) }

// mapOver builds Map(x: src, body(x)) with a fresh item scope.
func mapOver(src Node, name string, body func(x Node) Node) *Call {
	s := NewScope(ScopeSequenceItem, src.Type().ItemType(), name)
	b := body(s.Ref())
	return NewCall(mapOp, types.Sequence(b.Type()), []Node{src, b}, []*Scope{s, nil}, nil, Pure)
}

func TestConstant_Validation(t *testing.T) {
	assert.Panics(t, func() { NewNull(types.I8) }, "i8 cannot hold null")
	assert.Panics(t, func() { NewInt64(300, types.U1) })
	assert.Panics(t, func() { NewConstant(Text("x"), types.I8) })
	assert.NotPanics(t, func() { NewNull(types.I8.ToOpt()) })
	assert.NotPanics(t, func() { NewNull(types.Sequence(types.I8)) })
	assert.NotPanics(t, func() { NewInt64(3, types.I8.ToOpt()) })

	r4 := NewFloat(0.1, types.R4)
	assert.Equal(t, float64(float32(0.1)), float64(r4.Value.(Float)))
}

func TestDefaultOf(t *testing.T) {
	assert.Equal(t, "0:i4", Dump(DefaultOf(types.I4)))
	assert.Equal(t, "false:b", Dump(DefaultOf(types.Bit)))
	assert.Equal(t, `"":s`, Dump(DefaultOf(types.Text)))
	assert.Equal(t, "null:r8?", Dump(DefaultOf(types.R8.ToOpt())))
	assert.Equal(t, "null:s*", Dump(DefaultOf(types.Sequence(types.Text))))
	assert.Equal(t, KindDefault, DefaultOf(types.Tuple(types.I8)).Kind())
}

func TestOrdinals_Increase(t *testing.T) {
	a := i8(1)
	b := i8(2)
	assert.Greater(t, b.Ordinal(), a.Ordinal())
	assert.GreaterOrEqual(t, LastOrdinal(), b.Ordinal())

	o := NewOrdinals()
	assert.Equal(t, int64(1), o.Next())
	assert.Equal(t, int64(2), o.Next())
	assert.Equal(t, int64(2), o.Current())
}

func TestMask_ComputedOnce(t *testing.T) {
	x := NewGlobal("x", types.I8)
	bad := NewError(types.I8, "boom")
	sum := NewVariadic(VarAdd, types.I8, []Node{x, bad}, nil)

	m := sum.Mask()
	assert.True(t, m.Has(KindVariadic))
	assert.True(t, m.Has(KindGlobal))
	assert.True(t, m.HasErrors())
	assert.False(t, m.IsImpure())

	now := NewCall(&testOp{path: "Now", loop: -1}, types.I8, nil, nil, nil, Volatile)
	wrapped := NewVariadic(VarAdd, types.I8, []Node{x, now}, nil)
	assert.True(t, wrapped.Mask().IsImpure())
	assert.Contains(t, wrapped.Mask().String(), "volatile")
}

func TestFactories_Fold(t *testing.T) {
	tup := NewTuple(i8(1), NewText("a"))
	assert.Same(t, tup.Items[1], NewGetSlot(tup, 1), "literal tuple read yields the item")

	rec := NewRecord([]string{"B", "A", "B"}, []Node{i8(1), i8(2), i8(3)})
	assert.Equal(t, []string{"A", "B"}, rec.Names)
	assert.Equal(t, "3:i8", Dump(NewGetField(rec, "B")), "last writer wins")

	ten := NewTensor(types.I8, []int{2, 2}, []Node{i8(1), i8(2), i8(3), i8(4)})
	assert.Equal(t, "3:i8", Dump(NewIndex(ten, i8(1), i8(0))))
	assert.Equal(t, KindIndex, NewIndex(ten, i8(2), i8(0)).Kind(), "out of range is left to the reducer")

	now := NewCall(&testOp{path: "Now", loop: -1}, types.I8, nil, nil, nil, Volatile)
	mixed := NewTensor(types.I8, []int{2}, []Node{i8(1), now})
	assert.Equal(t, KindIndex, NewIndex(mixed, i8(0)).Kind(), "impure siblings are kept")
	assert.Same(t, Node(now), NewIndex(mixed, i8(1)), "the impure item itself can be selected")
	assert.Equal(t, KindGetSlot, NewGetSlot(NewTuple(i8(1), now), 0).Kind())
	assert.Equal(t, KindGetField, NewGetField(NewRecord([]string{"A", "B"}, []Node{i8(1), now}), "A").Kind())

	x := NewGlobal("x", types.I8)
	assert.Same(t, x, NewCast(x, types.I8))
	assert.Equal(t, KindCast, NewCast(x, types.R8).Kind())
	assert.Panics(t, func() { NewCast(x, types.I4) })
}

func TestVariadic_IdentityAndSingle(t *testing.T) {
	x := NewGlobal("x", types.I8)
	assert.Same(t, x, NewVariadic(VarAdd, types.I8, []Node{x}, nil))
	assert.Equal(t, "0:i8", Dump(NewVariadic(VarAdd, types.I8, nil, nil)))
	assert.Equal(t, "1:i8", Dump(NewVariadic(VarMul, types.I8, nil, nil)))
	assert.Equal(t, "-1:i8", Dump(NewVariadic(VarAnd, types.I8, nil, nil)))
	assert.Equal(t, "255:u1", Dump(NewVariadic(VarAnd, types.U1, nil, nil)))
	assert.Equal(t, "true:b", Dump(NewVariadic(VarAnd, types.Bit, nil, nil)))
	assert.Equal(t, "-0.0:r8", Dump(NewVariadic(VarAdd, types.R8, nil, nil)))
	assert.Equal(t, `"":s`, Dump(NewVariadic(VarConcat, types.Text, nil, nil)))

	neg := NewVariadic(VarAdd, types.I8, []Node{x}, []bool{true})
	assert.Equal(t, "Add(-x)", Dump(neg))
	assert.Panics(t, func() { NewVariadic(VarOr, types.I8, []Node{x, x}, []bool{false, true}) })
}

func TestConcatType(t *testing.T) {
	a := NewRecord([]string{"A", "B"}, []Node{i8(1), NewText("b")})
	b := NewRecord([]string{"B"}, []Node{i8(2)})
	rt := ConcatType(types.KindRecord, []Node{a, b})
	assert.Equal(t, "{A:i8, B:i8}", rt.String())

	tt := ConcatType(types.KindTuple, []Node{NewTuple(i8(1)), NewTuple(NewText("x"))})
	assert.Equal(t, "(i8, s)", tt.String())
	cat := NewVariadic(VarConcat, tt, []Node{NewTuple(i8(1)), NewTuple(NewText("x"))}, nil)
	assert.Equal(t, "Concat((1:i8,), (\"x\":s,))", Dump(cat))
}

func TestCompare_NullFlags(t *testing.T) {
	x := NewGlobal("x", types.I8.ToOpt())
	null := NewNull(types.I8.ToOpt())

	ge := NewCompare([]Node{x, null}, []CmpOp{CmpGe})
	assert.Equal(t, NullToTrue, ge.Links[0].RightNull, "anything >= null holds")

	lt := NewCompare([]Node{x, null}, []CmpOp{CmpLt})
	assert.Equal(t, NullToFalse, lt.Links[0].RightNull, "nothing is below null")

	// In a < b < c, the first link forces b to be non-null for the second.
	a := NewGlobal("a", types.I8.ToOpt())
	b := NewGlobal("b", types.I8.ToOpt())
	c := NewGlobal("c", types.I8.ToOpt())
	chain := NewCompare([]Node{a, b, c}, []CmpOp{CmpLt, CmpLt})
	assert.Equal(t, NullToOtherNotNull, chain.Links[0].LeftNull)
	assert.Equal(t, NullToFalse, chain.Links[0].RightNull, "the link itself still fails on a null b")
	assert.Equal(t, NullNever, chain.Links[1].LeftNull)
	assert.Equal(t, NullToFalse, chain.Links[1].RightNull)

	req := NewGlobal("r", types.I8)
	eq := NewCompare([]Node{x, req}, []CmpOp{CmpEq})
	assert.Equal(t, NullToFalse, eq.Links[0].LeftNull)
	assert.Equal(t, NullNever, eq.Links[0].RightNull)

	assert.Panics(t, func() { NewCompare([]Node{x, NewText("a")}, []CmpOp{CmpEq}) })
}

func TestScope_Identity(t *testing.T) {
	s := NewScope(ScopeWith, types.I8, "x")
	assert.Same(t, s.Ref(), s.Ref(), "a scope owns exactly one reference leaf")
	assert.Same(t, s, s.Ref().Scope)

	r := NewScope(ScopeRange, types.I4, "i")
	assert.Equal(t, types.I8, r.Type(), "range scopes are i8")

	c := s.Clone()
	assert.NotSame(t, s, c)
	assert.Equal(t, s.Kind(), c.Kind())
	assert.Equal(t, s.Type(), c.Type())

	assert.Panics(t, func() { NewScope(ScopeNone, types.I8, "") })
}

func TestScopeStack(t *testing.T) {
	x1 := NewScope(ScopeWith, types.I8, "x")
	x2 := NewScope(ScopeWith, types.Text, "x")
	y := NewScope(ScopeWith, types.Bit, "y")

	var empty *ScopeStack
	st1 := empty.Push(x1, "x")
	st2 := st1.Push(y, "y").Push(x2, "x")

	got, ok := st2.Lookup("x")
	require.True(t, ok)
	assert.Same(t, x2, got, "inner scope shadows outer")

	got, ok = st1.Lookup("x")
	require.True(t, ok)
	assert.Same(t, x1, got, "pushing never alters an existing stack")

	_, ok = st1.Lookup("y")
	assert.False(t, ok)

	assert.Equal(t, 3, st2.Depth())
	assert.Equal(t, []string{"x", "y"}, st2.Names())
	assert.Equal(t, []*Scope{x2, y, x1}, st2.Scopes())
	assert.Same(t, x2, st2.Top())
	assert.Equal(t, 0, empty.Depth())

	found, ok := st2.Find(func(s *Scope) bool { return s.Type() == types.Bit })
	require.True(t, ok)
	assert.Same(t, y, found)
}

func TestEquivalent_FreshScopesAreDistinct(t *testing.T) {
	a := NewScope(ScopeWith, types.I8, "x")
	b := NewScope(ScopeWith, types.I8, "x")

	assert.False(t, Equivalent(a.Ref(), b.Ref(), nil, nil))
	assert.True(t, Equivalent(a.Ref(), b.Ref(), map[*Scope]*Scope{a: b}, nil))
	assert.True(t, Equivalent(a.Ref(), a.Ref(), nil, nil))
}

func TestEquivalent_PairsOwnedScopes(t *testing.T) {
	src := NewGlobal("s", types.Sequence(types.I8))
	body := func(x Node) Node { return NewVariadic(VarAdd, types.I8, []Node{x, i8(1)}, nil) }

	m1 := mapOver(src, "x", body)
	m2 := mapOver(src, "y", body)
	assert.True(t, Equivalent(m1, m2, nil, nil), "separately bound loops compare equal")
	assert.Equal(t, Fingerprint(m1), Fingerprint(m2))

	m3 := mapOver(src, "x", func(x Node) Node { return NewVariadic(VarAdd, types.I8, []Node{x, i8(2)}, nil) })
	assert.False(t, Equivalent(m1, m3, nil, nil))
	assert.NotEqual(t, Fingerprint(m1), Fingerprint(m3))
}

func TestEquivalent_Globals(t *testing.T) {
	a := NewVariadic(VarAdd, types.I8, []Node{NewGlobal("a", types.I8), i8(1)}, nil)
	b := NewVariadic(VarAdd, types.I8, []Node{NewGlobal("b", types.I8), i8(1)}, nil)
	assert.False(t, Equivalent(a, b, nil, nil))
	assert.True(t, Equivalent(a, b, nil, map[string]string{"a": "b"}))
	assert.False(t, Equivalent(a, a, nil, map[string]string{"a": "b"}))
}

func TestEquivalent_FloatBits(t *testing.T) {
	pz := NewFloat(0, types.R8)
	nz := NewFloat(math.Copysign(0, -1), types.R8)
	assert.False(t, Equivalent(pz, nz, nil, nil), "+0 and -0 differ")
	nan1 := NewFloat(math.NaN(), types.R8)
	nan2 := NewFloat(math.NaN(), types.R8)
	assert.True(t, Equivalent(nan1, nan2, nil, nil))
}

func TestSubstituteAndReferences(t *testing.T) {
	s := NewScope(ScopeWith, types.I8, "x")
	g := NewGlobal("g", types.I8)
	sum := NewVariadic(VarAdd, types.I8, []Node{s.Ref(), g, s.Ref()}, nil)

	refs := References(sum)
	assert.True(t, refs.Contains(s))
	assert.Equal(t, 1, refs.Size())
	assert.True(t, Uses(sum, s))

	out := Substitute(sum, map[*Scope]Node{s: i8(5)})
	assert.Equal(t, "Add(5:i8, g, 5:i8)", Dump(out))
	assert.False(t, Uses(out, s))

	assert.Same(t, g, Substitute(g, map[*Scope]Node{s: i8(5)}), "untouched subtrees are shared")
	assert.Panics(t, func() { Substitute(sum, map[*Scope]Node{s: NewText("a")}) })
}

func TestRebuild_UnchangedReturnsSame(t *testing.T) {
	x := NewGlobal("x", types.I8)
	sum := NewVariadic(VarAdd, types.I8, []Node{x, i8(1)}, nil)
	assert.Same(t, sum, Rebuild(sum, []Node{x, sum.Children()[1]}))

	tup := NewTuple(x, i8(1))
	read := NewGetSlot(NewGlobal("t", tup.Type()), 0)
	folded := Rebuild(read, []Node{tup})
	assert.Same(t, x, folded, "rebuilding may fold")
}

func TestDump(t *testing.T) {
	x := NewGlobal("x", types.I8.ToOpt())
	y := NewGlobal("y", types.I8)
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"text", NewText("a\"b"), `"a\"b":s`},
		{"html", NewText("<&>"), `"<&>":s`},
		{"float", NewFloat(2, types.R8), "2.0:r8"},
		{"mul", NewVariadic(VarMul, types.R8, []Node{NewGlobal("a", types.R8), NewGlobal("b", types.R8)}, []bool{false, true}), "Mul(a, /b)"},
		{"compare", NewCompare([]Node{x, NewCast(y, types.I8.ToOpt())}, []CmpOp{CmpLe}), "Cmp(x <= Cast(y):i8?)"},
		{"empty seq", NewSequence(types.Sequence(types.I8)), "[]:i8*"},
		{"tuple", NewTuple(y), "(y,)"},
		{"record", NewRecord([]string{"A"}, []Node{y}), "{A: y}"},
		{"if", NewIf(NewBit(true), y, i8(0)), "If(true:b, y, 0:i8)"},
		{"unary", NewUnary(UnaryNegate, y), "Neg(y)"},
		{"shl", NewBinary(BinaryShl, y, i8(2)), "Shl(y, 2:i8)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dump(tt.node))
		})
	}
}

func TestDump_ScopeLabels(t *testing.T) {
	src := NewGlobal("s", types.Sequence(types.I8))
	m := mapOver(src, "x", func(x Node) Node { return NewVariadic(VarAdd, types.I8, []Node{x, x}, nil) })
	assert.Equal(t, "Map(x$1: s, Add(x$1, x$1))", Dump(m))
	assert.Equal(t, "Map(x$1: s, Add(x$1, x$1)) : i8*", DumpTyped(m))
}

func TestFingerprint_Stable(t *testing.T) {
	fp := Fingerprint(NewText("café"))
	assert.Len(t, fp, 64)
	// NFC normalization makes the decomposed form hash identically.
	assert.Equal(t, fp, Fingerprint(NewText("cafe\u0301")))
}

func TestSize(t *testing.T) {
	x := NewGlobal("x", types.I8)
	sum := NewVariadic(VarAdd, types.I8, []Node{x, i8(1), i8(2)}, nil)
	assert.Equal(t, 4, Size(sum))
}
