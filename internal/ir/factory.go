package ir

import (
	"fmt"
	"math"
	"math/big"
	"slices"

	"github.com/roach88/quill/internal/types"
)

// Factories are the only way to build nodes. They panic when a structural
// invariant is violated: that is a programming error in the caller, not a
// user error. User errors become Error placeholders built by the binder.

func invariant(ok bool, format string, args ...any) {
	if !ok {
		panic("ir: " + fmt.Sprintf(format, args...))
	}
}

// NewConstant builds a literal of type t.
func NewConstant(v Value, t types.DType) *Constant {
	invariant(t.IsValid(), "constant with invalid type")
	req := t.ToReq()
	switch val := v.(type) {
	case Null:
		invariant(t.CanBeNull() || t.IsSequence(), "null constant of non-nullable type %s", t)
	case Bool:
		invariant(req == types.Bit, "bit constant of type %s", t)
	case Int:
		invariant(req.IsInteger(), "integer constant of type %s", t)
		invariant(types.Fits(req, val.Big()), "integer %s does not fit %s", val, t)
	case Float:
		invariant(req.IsFloat(), "float constant of type %s", t)
		if req == types.R4 && !math.IsNaN(float64(val)) {
			invariant(float64(float32(val)) == float64(val), "r4 constant %v is not exact", float64(val))
		}
	case Text:
		invariant(req == types.Text, "text constant of type %s", t)
	default:
		panic(fmt.Sprintf("ir: unknown constant payload %T", v))
	}
	return &Constant{base: newBase(KindConstant, t), Value: v}
}

// NewNull returns the null constant of type t.
func NewNull(t types.DType) *Constant { return NewConstant(Null{}, t) }

// NewBit returns a bit constant.
func NewBit(b bool) *Constant { return NewConstant(Bool(b), types.Bit) }

// NewInt64 returns an integer constant of type t.
func NewInt64(n int64, t types.DType) *Constant { return NewConstant(NewInt(n), t) }

// NewBig returns an integer constant of type t.
func NewBig(n *big.Int, t types.DType) *Constant { return NewConstant(NewBigInt(n), t) }

// NewFloat returns a float constant of type t, rounding to r4 when needed.
func NewFloat(f float64, t types.DType) *Constant {
	if t.ToReq() == types.R4 {
		f = float64(float32(f))
	}
	return NewConstant(Float(f), t)
}

// NewText returns a text constant.
func NewText(s string) *Constant { return NewConstant(Text(s), types.Text) }

// DefaultOf returns the default value of t: zero for numbers, false, empty
// text, null for nullable types and a Default node for aggregates.
func DefaultOf(t types.DType) Node {
	switch {
	case t.CanBeNull() || t.IsSequence():
		return NewNull(t)
	case t == types.Bit:
		return NewBit(false)
	case t.IsInteger():
		return NewInt64(0, t)
	case t.IsFloat():
		return NewFloat(0, t)
	case t == types.Text:
		return NewText("")
	}
	invariant(t.IsRecord() || t.IsTuple() || t.IsTensor(), "no default for %s", t)
	return &Default{base: newBase(KindDefault, t)}
}

// NewError returns an error placeholder of type t.
func NewError(t types.DType, msg string) *Error {
	invariant(t.IsValid(), "error with invalid type")
	return &Error{base: newBase(KindError, t), Message: msg}
}

// NewMissing returns a missing-argument placeholder of type t.
func NewMissing(t types.DType) *Missing {
	invariant(t.IsValid(), "missing with invalid type")
	return &Missing{base: newBase(KindMissing, t)}
}

// NewNamespace returns a namespace placeholder.
func NewNamespace(path string) *Namespace {
	return &Namespace{base: newBase(KindNamespace, types.General), Path: path}
}

// NewGlobal references a global of type t.
func NewGlobal(name string, t types.DType) *Global {
	invariant(t.IsValid(), "global %q with invalid type", name)
	return &Global{base: newBase(KindGlobal, t), Name: name}
}

// NewGetField reads a field of a record. A literal record folds to the field
// value directly.
func NewGetField(rec Node, name string) Node {
	ft, ok := rec.Type().Field(name)
	invariant(ok, "record %s has no field %q", rec.Type(), name)
	if lit, ok := rec.(*RecordLit); ok {
		if i := slices.Index(lit.Names, name); othersPure(lit.Values, i) {
			return lit.Values[i]
		}
	}
	return &GetField{base: newBase(KindGetField, ft, rec), Record: rec, Name: name}
}

// NewGetSlot reads a tuple slot. A literal tuple with pure siblings folds to
// the item directly.
func NewGetSlot(tup Node, slot int) Node {
	slots := tup.Type().Slots()
	invariant(slot >= 0 && slot < len(slots), "tuple %s has no slot %d", tup.Type(), slot)
	if lit, ok := tup.(*TupleLit); ok && othersPure(lit.Items, slot) {
		return lit.Items[slot]
	}
	return &GetSlot{base: newBase(KindGetSlot, slots[slot], tup), Tuple: tup, Slot: slot}
}

// NewIndex reads a tensor element. Constant in-range indices into a literal
// tensor fold to the element when the other elements are pure.
func NewIndex(ten Node, indices ...Node) Node {
	t := ten.Type()
	invariant(t.IsTensor() && !t.IsOpt(), "index into %s", t)
	invariant(len(indices) == t.TensorRank(), "tensor rank %d indexed with %d indices", t.TensorRank(), len(indices))
	for _, ix := range indices {
		invariant(ix.Type() == types.I8, "tensor index of type %s", ix.Type())
	}
	if lit, ok := ten.(*TensorLit); ok {
		if pos, ok := ConstantOffset(lit.Shape, indices); ok && pos >= 0 && othersPure(lit.Items, pos) {
			return lit.Items[pos]
		}
	}
	kids := append([]Node{ten}, indices...)
	return &Index{base: newBase(KindIndex, t.ItemType(), kids...), Tensor: ten, Indices: slices.Clone(indices)}
}

// othersPure reports whether every item except items[keep] is pure, so
// that dropping them changes no side effect.
func othersPure(items []Node, keep int) bool {
	for i, it := range items {
		if i != keep && it.Mask().IsImpure() {
			return false
		}
	}
	return true
}

// ConstantOffset returns the row-major offset for constant indices. The
// offset is -1 when an index is out of range; ok is false when some index is
// not constant.
func ConstantOffset(shape []int, indices []Node) (int, bool) {
	pos := 0
	for i, ix := range indices {
		c, ok := ix.(*Constant)
		if !ok {
			return 0, false
		}
		iv, ok := c.Value.(Int)
		if !ok {
			return 0, false
		}
		n, fits := iv.Int64()
		if !fits || n < 0 || n >= int64(shape[i]) {
			return -1, true
		}
		pos = pos*shape[i] + int(n)
	}
	return pos, true
}

// NewCast converts n to t. Casting to the node's own type returns n.
func NewCast(n Node, t types.DType) Node {
	if n.Type() == t {
		return n
	}
	invariant(types.Accepts(t, n.Type()), "cast from %s to %s", n.Type(), t)
	return &Cast{base: newBase(KindCast, t, n), Arg: n}
}

// NewUnary applies op. Not takes bits; Negate takes a numeric value.
func NewUnary(op UnaryOp, arg Node) *Unary {
	t := arg.Type()
	switch op {
	case UnaryNot:
		invariant(t == types.Bit || t.IsInteger(), "not of %s", t)
	case UnaryNegate:
		invariant(t.IsNumeric() && !t.IsOpt(), "negate of %s", t)
	}
	return &Unary{base: newBase(KindUnary, t, arg), Op: op, Arg: arg}
}

// NewBinary applies op. IntDiv and Mod take operands of the result type; Shl
// takes an i8 shift count.
func NewBinary(op BinaryOp, left, right Node) *Binary {
	t := left.Type()
	invariant(t.IsNumeric() && !t.IsOpt(), "%s of %s", op, t)
	if op == BinaryShl {
		invariant(t.IsInteger() && right.Type() == types.I8, "shl of %s by %s", t, right.Type())
	} else {
		invariant(right.Type() == t, "%s operands %s and %s", op, t, right.Type())
	}
	return &Binary{base: newBase(KindBinary, t, left, right), Op: op, Left: left, Right: right}
}

// NewVariadic applies an associative operator. A single non-inverted operand
// is returned as is; no operands yields the operator's identity.
func NewVariadic(op VarOp, t types.DType, args []Node, inverted []bool) Node {
	if inverted == nil {
		inverted = make([]bool, len(args))
	}
	invariant(len(args) == len(inverted), "variadic with %d args and %d flags", len(args), len(inverted))
	if len(args) == 0 {
		return Identity(op, t)
	}
	if len(args) == 1 && !inverted[0] && args[0].Type() == t {
		return args[0]
	}
	for i, a := range args {
		invariant(!inverted[i] || op.Invertible(), "inverted operand for %s", op)
		if op != VarConcat || t.IsSequence() || t == types.Text {
			invariant(a.Type() == t, "%s operand %d of type %s, want %s", op, i, a.Type(), t)
		}
	}
	if op == VarConcat && (t.IsTuple() || t.IsRecord()) {
		invariant(ConcatType(t.Kind(), args) == t, "concat type %s", t)
	}
	return &Variadic{
		base:     newBase(KindVariadic, t, args...),
		Op:       op,
		Args:     slices.Clone(args),
		Inverted: slices.Clone(inverted),
	}
}

// ConcatType returns the type of concatenating tuples (slots appended) or
// records (fields merged, last writer wins).
func ConcatType(kind types.Kind, args []Node) types.DType {
	if kind == types.KindTuple {
		var slots []types.DType
		for _, a := range args {
			slots = append(slots, a.Type().Slots()...)
		}
		return types.Tuple(slots...)
	}
	var fields []types.Field
	for _, a := range args {
		fields = append(fields, a.Type().Fields()...)
	}
	return types.Record(fields...)
}

// Identity returns the identity element of op at type t.
func Identity(op VarOp, t types.DType) Node {
	switch op {
	case VarAdd, VarOr, VarXor:
		if t == types.Bit {
			return NewBit(false)
		}
		if t.IsFloat() && op == VarAdd {
			return NewFloat(math.Copysign(0, -1), t)
		}
		return NewInt64(0, t)
	case VarMul:
		if t.IsFloat() {
			return NewFloat(1, t)
		}
		return NewInt64(1, t)
	case VarAnd:
		if t == types.Bit {
			return NewBit(true)
		}
		return NewConstant(NewBigInt(AllOnes(t)), t)
	}
	if t == types.Text {
		return NewText("")
	}
	if t.IsTuple() && len(t.Slots()) == 0 {
		return NewTuple()
	}
	if t.IsRecord() && len(t.Fields()) == 0 {
		return NewRecord(nil, nil)
	}
	return DefaultOf(t)
}

// AllOnes returns the value with every bit set for integer type t: -1 for
// signed types, the maximum for unsigned types.
func AllOnes(t types.DType) *big.Int {
	if t.IsUnsigned() {
		v := new(big.Int).Lsh(big.NewInt(1), uint(t.BitWidth()))
		return v.Sub(v, big.NewInt(1))
	}
	return big.NewInt(-1)
}

// NewCompare builds a comparison chain. Operand types may differ only in
// their optional marker. Null-handling flags are computed per link.
func NewCompare(args []Node, ops []CmpOp) *Compare {
	invariant(len(args) >= 2 && len(ops) == len(args)-1, "compare with %d args and %d ops", len(args), len(ops))
	req := args[0].Type().ToReq()
	for _, a := range args[1:] {
		invariant(a.Type().ToReq() == req, "compare of %s and %s", args[0].Type(), a.Type())
	}
	return &Compare{
		base:  newBase(KindCompare, types.Bit, args...),
		Args:  slices.Clone(args),
		Links: computeLinks(args, ops),
	}
}

func computeLinks(args []Node, ops []CmpOp) []Link {
	base := make([]bool, len(args))
	for i, a := range args {
		base[i] = !MayBeNull(a)
	}
	// The chain is a conjunction, so a link that fails on a null operand
	// lets every other link assume that operand is not null. forcers[i]
	// lists the links that force operand i.
	forcers := make([][]int, len(args))
	known := func(i, except int) bool {
		if base[i] {
			return true
		}
		for _, k := range forcers[i] {
			if k != except {
				return true
			}
		}
		return false
	}
	force := func(i, k int) bool {
		if slices.Contains(forcers[i], k) {
			return false
		}
		forcers[i] = append(forcers[i], k)
		return true
	}
	for changed := true; changed; {
		changed = false
		for k, op := range ops {
			switch op {
			case CmpLt:
				changed = force(k+1, k) || changed
			case CmpGt:
				changed = force(k, k) || changed
			case CmpEq:
				if known(k, k) {
					changed = force(k+1, k) || changed
				}
				if known(k+1, k) {
					changed = force(k, k) || changed
				}
			}
		}
	}

	links := make([]Link, len(ops))
	for k, op := range ops {
		left, right := baseNullTo(op)
		l, r := known(k, k), known(k+1, k)
		links[k] = Link{
			Op:        op,
			LeftNull:  strengthen(left, l, r),
			RightNull: strengthen(right, r, l),
		}
	}
	return links
}

// baseNullTo returns the flags of a link with no knowledge about operands.
func baseNullTo(op CmpOp) (left, right NullTo) {
	switch op {
	case CmpLt:
		return NullToOtherNotNull, NullToFalse
	case CmpLe:
		return NullToTrue, NullToOtherNull
	case CmpGt:
		return NullToFalse, NullToOtherNotNull
	case CmpGe:
		return NullToOtherNull, NullToTrue
	case CmpNe:
		return NullToOtherNotNull, NullToOtherNotNull
	}
	return NullToOtherNull, NullToOtherNull
}

func strengthen(f NullTo, selfNonNull, otherNonNull bool) NullTo {
	if selfNonNull {
		return NullNever
	}
	if otherNonNull {
		switch f {
		case NullToOtherNull:
			return NullToFalse
		case NullToOtherNotNull:
			return NullToTrue
		}
	}
	return f
}

// MayBeNull reports whether n can evaluate to null.
func MayBeNull(n Node) bool {
	if c, ok := n.(*Constant); ok {
		return c.IsNull()
	}
	return n.Type().CanBeNull()
}

// NewIf builds a conditional. Both branches must have the result type.
func NewIf(cond, then, els Node) *If {
	invariant(cond.Type() == types.Bit, "if condition of type %s", cond.Type())
	invariant(then.Type() == els.Type(), "if branches %s and %s", then.Type(), els.Type())
	return &If{base: newBase(KindIf, then.Type(), cond, then, els), Cond: cond, Then: then, Else: els}
}

// NewSequence builds a sequence literal of type t.
func NewSequence(t types.DType, items ...Node) *SequenceLit {
	invariant(t.IsSequence(), "sequence literal of type %s", t)
	for _, it := range items {
		invariant(it.Type() == t.ItemType(), "sequence item %s in %s", it.Type(), t)
	}
	return &SequenceLit{base: newBase(KindSequenceLit, t, items...), Items: slices.Clone(items)}
}

// NewTuple builds a tuple literal.
func NewTuple(items ...Node) *TupleLit {
	slots := make([]types.DType, len(items))
	for i, it := range items {
		slots[i] = it.Type()
	}
	return &TupleLit{base: newBase(KindTupleLit, types.Tuple(slots...), items...), Items: slices.Clone(items)}
}

// NewRecord builds a record literal. When a name repeats, the last value
// wins; names are stored sorted.
func NewRecord(names []string, values []Node) *RecordLit {
	invariant(len(names) == len(values), "record with %d names and %d values", len(names), len(values))
	idx := make(map[string]int, len(names))
	for i, nm := range names {
		idx[nm] = i
	}
	sorted := make([]string, 0, len(idx))
	for nm := range idx {
		sorted = append(sorted, nm)
	}
	slices.Sort(sorted)
	vals := make([]Node, len(sorted))
	fields := make([]types.Field, len(sorted))
	for i, nm := range sorted {
		vals[i] = values[idx[nm]]
		fields[i] = types.Field{Name: nm, Type: vals[i].Type()}
	}
	return &RecordLit{base: newBase(KindRecordLit, types.Record(fields...), vals...), Names: sorted, Values: vals}
}

// NewTensor builds a tensor literal with items in row-major order.
func NewTensor(item types.DType, shape []int, items []Node) *TensorLit {
	size := 1
	for _, d := range shape {
		invariant(d >= 0, "negative tensor dimension")
		size *= d
	}
	invariant(len(items) == size, "tensor of shape %v with %d items", shape, len(items))
	for _, it := range items {
		invariant(it.Type() == item, "tensor item %s, want %s", it.Type(), item)
	}
	t := types.Tensor(item, len(shape))
	return &TensorLit{base: newBase(KindTensorLit, t, items...), Shape: slices.Clone(shape), Items: slices.Clone(items)}
}

// NewCall builds an operator call of result type t.
func NewCall(op Oper, t types.DType, args []Node, scopes []*Scope, index *Scope, purity Purity) *Call {
	invariant(op != nil, "call without operator")
	invariant(t.IsValid(), "call %s with invalid type", op.Path())
	if scopes == nil {
		scopes = make([]*Scope, len(args))
	}
	invariant(len(scopes) == len(args), "call %s with %d args and %d scopes", op.Path(), len(args), len(scopes))
	b := newBase(KindCall, t, args...)
	b.mask |= purity.mask()
	return &Call{
		base:   b,
		Op:     op,
		Args:   slices.Clone(args),
		Scopes: slices.Clone(scopes),
		Index:  index,
		Purity: purity,
	}
}

// NewGroupBy groups a sequence by key. The result is a sequence of groups.
func NewGroupBy(src Node, scope *Scope, key Node) *GroupBy {
	invariant(src.Type().IsSequence(), "group by over %s", src.Type())
	invariant(scope.Type() == src.Type().ItemType(), "group scope %s over %s", scope.Type(), src.Type())
	t := types.Sequence(src.Type())
	return &GroupBy{base: newBase(KindGroupBy, t, src, key), Source: src, Scope: scope, Key: key}
}

// NewSetFields replaces or adds fields of a record.
func NewSetFields(rec Node, scope *Scope, names []string, values []Node) *SetFields {
	invariant(rec.Type().IsRecord() && !rec.Type().IsOpt(), "set fields on %s", rec.Type())
	invariant(scope.Type() == rec.Type(), "set fields scope %s on %s", scope.Type(), rec.Type())
	invariant(len(names) == len(values), "set fields with %d names and %d values", len(names), len(values))
	fields := slices.Clone(rec.Type().Fields())
	for i, nm := range names {
		fields = append(fields, types.Field{Name: nm, Type: values[i].Type()})
	}
	kids := append([]Node{rec}, values...)
	return &SetFields{
		base:   newBase(KindSetFields, types.Record(fields...), kids...),
		Record: rec,
		Scope:  scope,
		Names:  slices.Clone(names),
		Values: slices.Clone(values),
	}
}
