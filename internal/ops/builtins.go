package ops

import (
	"fmt"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/types"
)

// Syntax operators. Their paths are not valid identifiers, so they are only
// reachable from operator syntax.
var (
	Add    = arith("+", ir.VarAdd, false)
	Sub    = arith("-", ir.VarAdd, true)
	Mul    = arith("*", ir.VarMul, false)
	Divide = &Op{
		path: "/", minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			if _, ok := commonNumeric(sc.Args); !ok {
				return fail(sc, "operands of / must be numeric, got %s", sc.Args)
			}
			return uniform(sc, types.R8, types.R8)
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewVariadic(ir.VarMul, bc.Ret, bc.Args, []bool{false, true})
		},
	}
	Negate = &Op{
		path: "neg", minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t, ok := commonNumeric(sc.Args)
			if !ok {
				return fail(sc, "cannot negate %s", sc.Args[0])
			}
			t = types.ArithType(t)
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewUnary(ir.UnaryNegate, bc.Args[0]) },
	}
	Not = &Op{
		path: "not", minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t := orVac(sc.Args[0].ToReq(), types.Bit)
			if t != types.Bit && !t.IsInteger() {
				return fail(sc, "not requires a bit or integer operand, got %s", sc.Args[0])
			}
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewUnary(ir.UnaryNot, bc.Args[0]) },
	}
	And = bitwise("and", ir.VarAnd)
	Or  = bitwise("or", ir.VarOr)
	Xor = bitwise("xor", ir.VarXor)

	// Concat joins text, tuples or records.
	Concat = &Op{
		path: "&", minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec:  concatSpec,
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewVariadic(ir.VarConcat, bc.Ret, bc.Args, nil)
		},
	}
	// SeqConcat appends sequences.
	SeqConcat = &Op{
		path: "++", minArity: 2, maxArity: 2,
		spec: func(sc SpecContext) Sig {
			t := supAll(sc.Args)
			if t.Kind() == types.KindVac {
				t = types.Sequence(types.Vac)
			}
			if !t.IsSequence() {
				return fail(sc, "operands of ++ must be sequences, got %s", sc.Args)
			}
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewVariadic(ir.VarConcat, bc.Ret, bc.Args, nil)
		},
	}
)

// NewCompareOp returns the operator for a comparison chain with the given
// links. Chains broadcast over sequences and tensors; optional operands are
// compared directly with null ordered first.
func NewCompareOp(cmps []ir.CmpOp) *Op {
	return &Op{
		path: "compare", minArity: len(cmps) + 1, maxArity: len(cmps) + 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftSeq|LiftTensor) },
		spec: func(sc SpecContext) Sig {
			var common types.DType
			for _, t := range sc.Args {
				if t.Kind() == types.KindVac {
					continue
				}
				common = types.Sup(common, t.ToReq())
			}
			if !common.IsValid() {
				common = types.I8
			}
			if !isComparable(common) {
				return fail(sc, "cannot compare values of type %s", sc.Args)
			}
			want := make([]types.DType, len(sc.Args))
			for i, t := range sc.Args {
				want[i] = common
				if t.CanBeNull() {
					want[i] = common.ToOpt()
				}
			}
			return Sig{Ret: types.Bit, Want: want}
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewCompare(bc.Args, cmps) },
	}
}

// Named operators.
var (
	If = &Op{
		path: "If", minArity: 3, maxArity: 3,
		spec: func(sc SpecContext) Sig {
			ret := types.Sup(sc.Args[1], sc.Args[2])
			if ret.Kind() == types.KindVac {
				ret = types.General
			}
			return Sig{Ret: ret, Want: []types.DType{types.Bit, ret, ret}}
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewIf(bc.Args[0], bc.Args[1], bc.Args[2]) },
	}

	With  = aliasOp("With", ir.ScopeWith, LiftNone)
	Guard = aliasOp("Guard", ir.ScopeGuard, LiftSeq)

	Map     = mapOp("Map")
	ForEach = mapOp("ForEach")

	Fold = &Op{
		path: "Fold", minArity: 3, maxArity: 3, hasIndex: true,
		slots: func(int) []Slot {
			return []Slot{
				{Scope: ir.ScopeSequenceItem, NestStart: 0, Name: NameOptional},
				{Scope: ir.ScopeIterate, NestStart: 1, Name: NameOptional},
				{NestStart: 0, Loop: true, Index: true},
			}
		},
		spec: func(sc SpecContext) Sig {
			acc := sc.Scopes[1].Type()
			body := sc.Args[2]
			if types.Accepts(acc, body) {
				return Sig{Ret: acc, Want: []types.DType{sc.Scopes[0].Type(), acc, acc}}
			}
			// The accumulator must widen to hold the body; the binder
			// retries with the promoted scope type.
			up := types.Sup(acc, body)
			return Sig{Ret: acc, Want: []types.DType{sc.Scopes[0].Type(), up, acc}}
		},
	}

	Generate = &Op{
		path: "Generate", minArity: 2, maxArity: 2,
		slots: func(int) []Slot {
			return []Slot{
				{Scope: ir.ScopeRange, NestStart: 0, Name: NameOptional},
				{NestStart: 0, Loop: true},
			}
		},
		scopeType: func(int, types.DType) types.DType { return types.I8 },
		spec: func(sc SpecContext) Sig {
			return Sig{Ret: types.Sequence(sc.Args[1]), Want: []types.DType{types.I8, sc.Args[1]}}
		},
	}

	Filter = &Op{
		path: "Filter", minArity: 2, maxArity: 2, hasIndex: true,
		slots: predicateSlots,
		spec: func(sc SpecContext) Sig {
			return Sig{Ret: sc.Args[0], Want: scopeWant(sc, types.Bit)}
		},
	}

	Sum = &Op{
		path: "Sum", minArity: 1, maxArity: 2, hasIndex: true,
		slots: aggregateSlots,
		spec: func(sc SpecContext) Sig {
			item := sc.Args[len(sc.Args)-1]
			if len(sc.Args) == 1 {
				if !item.IsSequence() {
					return fail(sc, "Sum requires a sequence, got %s", item)
				}
				item = item.ItemType()
			}
			if !item.IsNumeric() {
				return fail(sc, "Sum requires numeric items, got %s", item)
			}
			t := types.ArithType(item)
			if len(sc.Args) == 1 {
				return Sig{Ret: t.ToReq(), Want: []types.DType{types.Sequence(t)}}
			}
			return Sig{Ret: t.ToReq(), Want: scopeWant(sc, t)}
		},
	}

	Any = anyAll("Any")
	All = anyAll("All")

	Count = &Op{
		path: "Count", minArity: 1, maxArity: 1,
		spec: func(sc SpecContext) Sig {
			if !sc.Args[0].IsSequence() && sc.Args[0].Kind() != types.KindVac {
				return fail(sc, "Count requires a sequence, got %s", sc.Args[0])
			}
			return Sig{Ret: types.I8, Want: []types.DType{seqOrVac(sc.Args[0])}}
		},
	}

	TensorForEach = &Op{
		path: "Tensor.ForEach", minArity: 2, maxArity: -1,
		slots: func(n int) []Slot {
			ss := make([]Slot, n)
			for i := 0; i < n-1; i++ {
				ss[i] = Slot{Scope: ir.ScopeTensorItem, Lifts: LiftOpt, NestStart: i, Name: NameOptional}
			}
			ss[n-1] = Slot{NestStart: 0, Loop: true}
			return ss
		},
		spec: func(sc SpecContext) Sig {
			n := len(sc.Args)
			rank := sc.Args[0].TensorRank()
			for _, t := range sc.Args[:n-1] {
				if t.TensorRank() != rank {
					return fail(sc, "Tensor.ForEach over tensors of different rank: %s", sc.Args[:n-1])
				}
			}
			return Sig{Ret: types.Tensor(sc.Args[n-1], rank), Want: scopeWant(sc, sc.Args[n-1])}
		},
	}

	GroupBy = &Op{
		path: "GroupBy", minArity: 2, maxArity: 2,
		slots: predicateSlots,
		spec: func(sc SpecContext) Sig {
			key := sc.Args[1]
			if !isComparable(key.ToReq()) {
				return fail(sc, "GroupBy key must be comparable, got %s", key)
			}
			return Sig{Ret: types.Sequence(sc.Args[0]), Want: scopeWant(sc, key)}
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewGroupBy(bc.Args[0], bc.Scopes[0], bc.Args[1])
		},
	}

	SetFields = &Op{
		path: "SetFields", minArity: 2, maxArity: -1,
		slots: func(n int) []Slot {
			ss := make([]Slot, n)
			ss[0] = Slot{Scope: ir.ScopeWith, Lifts: LiftSeq | LiftOpt, NestStart: 0, Name: NameOptional}
			for i := 1; i < n; i++ {
				ss[i] = Slot{NestStart: 0, Name: NameRequired}
			}
			return ss
		},
		spec: func(sc SpecContext) Sig {
			if !sc.Args[0].IsRecord() {
				return fail(sc, "SetFields requires a record, got %s", sc.Args[0])
			}
			// The result type depends on the field names; the node factory
			// derives it.
			return Sig{Ret: sc.Args[0], Want: scopeWant(sc, sc.Args[1:]...)}
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewSetFields(bc.Args[0], bc.Scopes[0], bc.Names[1:], bc.Args[1:])
		},
	}

	Range = &Op{
		path: "Range", minArity: 1, maxArity: 3,
		spec: func(sc SpecContext) Sig {
			return uniform(sc, types.Sequence(types.I8), types.I8)
		},
	}

	Take = &Op{
		path: "Take", minArity: 2, maxArity: 2,
		spec: func(sc SpecContext) Sig {
			s := seqOrVac(sc.Args[0])
			if !s.IsSequence() {
				return fail(sc, "Take requires a sequence, got %s", sc.Args[0])
			}
			return Sig{Ret: s, Want: []types.DType{s, types.I8}}
		},
	}

	Abs = &Op{
		path: "Abs", minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t, ok := commonNumeric(sc.Args)
			if !ok {
				return fail(sc, "Abs requires a number, got %s", sc.Args[0])
			}
			t = types.ArithType(t)
			return uniform(sc, t, t)
		},
	}

	Sqrt = &Op{
		path: "Sqrt", minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			if _, ok := commonNumeric(sc.Args); !ok {
				return fail(sc, "Sqrt requires a number, got %s", sc.Args[0])
			}
			return uniform(sc, types.R8, types.R8)
		},
	}

	Div = &Op{
		path: "Div", minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec:  integerSpec("Div"),
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewBinary(ir.BinaryIntDiv, bc.Args[0], bc.Args[1]) },
	}

	Mod = &Op{
		path: "Mod", minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t, ok := commonNumeric(sc.Args)
			if !ok {
				return fail(sc, "Mod requires numbers, got %s", sc.Args)
			}
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewBinary(ir.BinaryMod, bc.Args[0], bc.Args[1]) },
	}

	Shl = &Op{
		path: "Bits.Shl", minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t := orVac(sc.Args[0].ToReq(), types.I8)
			if !t.IsInteger() {
				return fail(sc, "Bits.Shl requires an integer, got %s", sc.Args[0])
			}
			t = types.ArithType(t)
			return Sig{Ret: t, Want: []types.DType{t, types.I8}}
		},
		build: func(_ *Op, bc BuildContext) ir.Node { return ir.NewBinary(ir.BinaryShl, bc.Args[0], bc.Args[1]) },
	}

	TextLen   = textOp("Text.Len", types.I8)
	TextUpper = textOp("Text.Upper", types.Text)
	TextLower = textOp("Text.Lower", types.Text)

	TensorFrom = &Op{
		path: "Tensor.From", minArity: 1, maxArity: -1,
		spec: func(sc SpecContext) Sig {
			s := sc.Args[0]
			if !s.IsSequence() {
				return fail(sc, "Tensor.From requires a sequence, got %s", s)
			}
			rank := max(1, len(sc.Args)-1)
			want := []types.DType{s}
			for range sc.Args[1:] {
				want = append(want, types.I8)
			}
			return Sig{Ret: types.Tensor(s.ItemType(), rank), Want: want}
		},
	}

	TensorFill = &Op{
		path: "Tensor.Fill", minArity: 2, maxArity: -1,
		spec: func(sc SpecContext) Sig {
			want := []types.DType{sc.Args[0]}
			for range sc.Args[1:] {
				want = append(want, types.I8)
			}
			return Sig{Ret: types.Tensor(sc.Args[0], len(sc.Args)-1), Want: want}
		},
	}

	TensorShape = &Op{
		path: "Tensor.Shape", minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftSeq|LiftOpt) },
		spec: func(sc SpecContext) Sig {
			t := sc.Args[0]
			if !t.IsTensor() {
				return fail(sc, "Tensor.Shape requires a tensor, got %s", t)
			}
			dims := make([]types.DType, t.TensorRank())
			for i := range dims {
				dims[i] = types.I8
			}
			return Sig{Ret: types.Tuple(dims...), Want: []types.DType{t}}
		},
	}

	SeqReverse = &Op{
		path: "Seq.Reverse", minArity: 1, maxArity: 1,
		spec: func(sc SpecContext) Sig {
			s := seqOrVac(sc.Args[0])
			if !s.IsSequence() {
				return fail(sc, "Seq.Reverse requires a sequence, got %s", sc.Args[0])
			}
			return Sig{Ret: s, Want: []types.DType{s}}
		},
	}

	SeqFirst = &Op{
		path: "Seq.First", minArity: 1, maxArity: 1,
		spec: func(sc SpecContext) Sig {
			s := seqOrVac(sc.Args[0])
			if !s.IsSequence() {
				return fail(sc, "Seq.First requires a sequence, got %s", sc.Args[0])
			}
			ret := s.ItemType().ToOpt()
			if ret.Kind() == types.KindVac {
				ret = types.Vac
			}
			return Sig{Ret: ret, Want: []types.DType{s}}
		},
	}

	Now = &Op{
		path: "Now", minArity: 0, maxArity: 0, purity: ir.Volatile,
		spec: func(SpecContext) Sig { return Sig{Ret: types.I8} },
	}

	Print = &Op{
		path: "Print", minArity: 1, maxArity: 1, purity: ir.Procedure,
		spec: func(sc SpecContext) Sig {
			return Sig{Ret: sc.Args[0], Want: []types.DType{sc.Args[0]}}
		},
	}
)

// Builtins lists every named operator in registration order.
func Builtins() []*Op {
	return []*Op{
		If, With, Guard, Map, ForEach, Fold, Generate, Filter, Sum, Any, All,
		Count, TensorForEach, GroupBy, SetFields, Range, Take, Abs, Sqrt, Div,
		Mod, Shl, TextLen, TextUpper, TextLower, TensorFrom, TensorFill,
		TensorShape, SeqReverse, SeqFirst, Now, Print,
	}
}

// SyntaxOps maps operator tokens to their operators.
var SyntaxOps = map[string]*Op{
	"+": Add, "-": Sub, "*": Mul, "/": Divide, "&": Concat, "++": SeqConcat,
	"and": And, "or": Or, "xor": Xor,
}

func arith(path string, vop ir.VarOp, invertSecond bool) *Op {
	return &Op{
		path: path, minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t, ok := commonNumeric(sc.Args)
			if !ok {
				return fail(sc, "operands of %s must be numeric, got %s", path, sc.Args)
			}
			t = types.ArithType(t)
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewVariadic(vop, bc.Ret, bc.Args, []bool{false, invertSecond})
		},
	}
}

func bitwise(path string, vop ir.VarOp) *Op {
	return &Op{
		path: path, minArity: 2, maxArity: 2,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			t := orVac(types.Sup(sc.Args[0], sc.Args[1]).ToReq(), types.Bit)
			if t != types.Bit && !t.IsInteger() {
				return fail(sc, "operands of %s must be bits or integers, got %s", path, sc.Args)
			}
			return uniform(sc, t, t)
		},
		build: func(_ *Op, bc BuildContext) ir.Node {
			return ir.NewVariadic(vop, bc.Ret, bc.Args, nil)
		},
	}
}

func aliasOp(path string, kind ir.ScopeKind, firstLift Lifts) *Op {
	return &Op{
		path: path, minArity: 2, maxArity: -1,
		slots: func(n int) []Slot {
			ss := make([]Slot, n)
			for i := 0; i < n-1; i++ {
				ss[i] = Slot{Scope: kind, NestStart: 0, Name: NameOptional, Directive: true}
			}
			ss[0].Lifts = firstLift
			ss[n-1] = Slot{NestStart: 0}
			return ss
		},
		spec: func(sc SpecContext) Sig {
			body := sc.Args[len(sc.Args)-1]
			ret := body
			for _, s := range sc.Scopes {
				if s != nil && s.Kind() == ir.ScopeGuard {
					ret = body.ToOpt()
					break
				}
			}
			want := append([]types.DType(nil), sc.Args...)
			for i, s := range sc.Scopes {
				if s != nil {
					want[i] = s.Type()
				}
			}
			return Sig{Ret: ret, Want: want}
		},
	}
}

func mapOp(path string) *Op {
	return &Op{
		path: path, minArity: 2, maxArity: -1, hasIndex: true,
		slots: func(n int) []Slot {
			ss := make([]Slot, n)
			for i := 0; i < n-1; i++ {
				ss[i] = Slot{Scope: ir.ScopeSequenceItem, NestStart: i, Name: NameOptional}
			}
			ss[n-1] = Slot{NestStart: 0, Loop: true, Index: true}
			return ss
		},
		spec: func(sc SpecContext) Sig {
			n := len(sc.Args)
			body := sc.Args[n-1]
			want := append([]types.DType(nil), sc.Args...)
			for i, s := range sc.Scopes {
				if s != nil {
					want[i] = s.Type()
				}
			}
			return Sig{Ret: types.Sequence(body), Want: want}
		},
	}
}

func anyAll(path string) *Op {
	return &Op{
		path: path, minArity: 1, maxArity: 2, hasIndex: true,
		slots: aggregateSlots,
		spec: func(sc SpecContext) Sig {
			if len(sc.Args) == 1 {
				if sc.Args[0] != types.Sequence(types.Bit) {
					return fail(sc, "%s requires a bit sequence, got %s", path, sc.Args[0])
				}
				return Sig{Ret: types.Bit, Want: []types.DType{sc.Args[0]}}
			}
			return Sig{Ret: types.Bit, Want: scopeWant(sc, types.Bit)}
		},
	}
}

func textOp(path string, ret types.DType) *Op {
	return &Op{
		path: path, minArity: 1, maxArity: 1,
		slots: func(n int) []Slot { return plainSlots(n, LiftAll) },
		spec: func(sc SpecContext) Sig {
			if orVac(sc.Args[0].ToReq(), types.Text) != types.Text {
				return fail(sc, "%s requires text, got %s", path, sc.Args[0])
			}
			return Sig{Ret: ret, Want: []types.DType{types.Text}}
		},
	}
}

func integerSpec(path string) func(SpecContext) Sig {
	return func(sc SpecContext) Sig {
		t, ok := commonNumeric(sc.Args)
		if !ok || !t.IsInteger() {
			return fail(sc, "%s requires integers, got %s", path, sc.Args)
		}
		t = types.ArithType(t)
		return uniform(sc, t, t)
	}
}

// predicateSlots: an item scope followed by a per-item expression that may
// also see the loop index.
func predicateSlots(int) []Slot {
	return []Slot{
		{Scope: ir.ScopeSequenceItem, NestStart: 0, Name: NameOptional},
		{NestStart: 0, Loop: true, NoVolatile: true, Index: true},
	}
}

// aggregateSlots: one plain sequence slot, or an item scope plus selector.
func aggregateSlots(n int) []Slot {
	if n == 1 {
		return []Slot{{NestStart: 0}}
	}
	ss := predicateSlots(n)
	ss[1].NoVolatile = false
	return ss
}

func concatSpec(sc SpecContext) Sig {
	a, b := sc.Args[0], sc.Args[1]
	switch {
	case orVac(a, types.Text) == types.Text && orVac(b, types.Text) == types.Text:
		return uniform(sc, types.Text, types.Text)
	case a.IsTuple() && b.IsTuple() && !a.IsOpt() && !b.IsOpt():
		return Sig{Ret: types.Tuple(append(a.Slots(), b.Slots()...)...), Want: []types.DType{a, b}}
	case a.IsRecord() && b.IsRecord() && !a.IsOpt() && !b.IsOpt():
		fields := append(append([]types.Field(nil), a.Fields()...), b.Fields()...)
		return Sig{Ret: types.Record(fields...), Want: []types.DType{a, b}}
	}
	return fail(sc, "operands of & must be text, tuples or records, got %s", sc.Args)
}

func isComparable(t types.DType) bool {
	return t.IsNumeric() || t == types.Text || t == types.Bit
}

// commonNumeric joins numeric argument types. Null literals (v) stand for
// any type; when every argument is null the result is i8.
func commonNumeric(ts []types.DType) (types.DType, bool) {
	var t types.DType
	for _, a := range ts {
		if a.Kind() == types.KindVac {
			continue
		}
		if !a.IsNumeric() {
			return types.DType{}, false
		}
		t = types.Sup(t, a.ToReq())
	}
	if !t.IsValid() {
		return types.I8, true
	}
	return t, t.IsNumeric()
}

// orVac replaces the null literal type with def.
func orVac(t, def types.DType) types.DType {
	if t.Kind() == types.KindVac {
		return def
	}
	return t
}

func supAll(ts []types.DType) types.DType {
	var t types.DType
	for _, a := range ts {
		t = types.Sup(t, a)
	}
	return t
}

func seqOrVac(t types.DType) types.DType {
	if t.Kind() == types.KindVac {
		return types.Sequence(types.Vac)
	}
	return t
}

// scopeWant returns the scope types of the leading scope slots followed by
// rest for the remaining slots.
func scopeWant(sc SpecContext, rest ...types.DType) []types.DType {
	want := make([]types.DType, 0, len(sc.Args))
	for _, s := range sc.Scopes {
		if s == nil {
			break
		}
		want = append(want, s.Type())
	}
	return append(want, rest...)
}

func uniform(sc SpecContext, ret, arg types.DType) Sig {
	want := make([]types.DType, len(sc.Args))
	for i := range want {
		want[i] = arg
	}
	return Sig{Ret: ret, Want: want}
}

func fail(sc SpecContext, format string, args ...any) Sig {
	return Sig{Fail: fmt.Sprintf(format, args...), Want: append([]types.DType(nil), sc.Args...)}
}
