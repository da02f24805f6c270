package reduce

import (
	"math"
	"math/big"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/types"
)

func constValue(n ir.Node) (ir.Value, bool) {
	c, ok := n.(*ir.Constant)
	if !ok {
		return nil, false
	}
	return c.Value, true
}

func isNull(n ir.Node) bool {
	c, ok := n.(*ir.Constant)
	return ok && c.IsNull()
}

func intOf(n ir.Node) (*big.Int, bool) {
	v, _ := constValue(n)
	iv, ok := v.(ir.Int)
	if !ok {
		return nil, false
	}
	return iv.Big(), true
}

func floatOf(n ir.Node) (float64, bool) {
	v, _ := constValue(n)
	f, ok := v.(ir.Float)
	return float64(f), ok
}

func bitOf(n ir.Node) (bool, bool) {
	v, _ := constValue(n)
	b, ok := v.(ir.Bool)
	return bool(b), ok
}

func textOf(n ir.Node) (string, bool) {
	v, _ := constValue(n)
	s, ok := v.(ir.Text)
	return string(s), ok
}

// wrap reduces v modulo the width of the integer type t. ok is false when v
// did not fit.
func wrap(t types.DType, v *big.Int) (*big.Int, bool) {
	if types.Fits(t, v) {
		return v, true
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.BitWidth()))
	w := new(big.Int).Mod(v, mod)
	if t.IsSigned() && w.Cmp(new(big.Int).Rsh(mod, 1)) >= 0 {
		w.Sub(w, mod)
	}
	return w, false
}

// intConst builds the integer constant v of type t, wrapping it with a
// warning when it overflows.
func (r *reducer) intConst(at ir.Node, t types.DType, v *big.Int) ir.Node {
	w, ok := wrap(t.ToReq(), v)
	if !ok {
		r.warn(CodeOverflow, at, "%s overflows %s, wrapped to %s", v, t.ToReq(), w)
	}
	return ir.NewBig(w, t)
}

// roundFloat rounds f to the precision of t.
func roundFloat(t types.DType, f float64) float64 {
	if t.ToReq() == types.R4 {
		return float64(float32(f))
	}
	return f
}

func (r *reducer) cast(n *ir.Cast) ir.Node {
	t := n.Type()
	if inner, ok := n.Arg.(*ir.Cast); ok && types.Accepts(t, inner.Arg.Type()) {
		return r.local(ir.NewCast(inner.Arg, t))
	}
	if lit, ok := n.Arg.(*ir.SequenceLit); ok && t.IsSequence() {
		return r.castItems(n, lit)
	}
	c, ok := n.Arg.(*ir.Constant)
	if !ok {
		return n
	}
	req := t.ToReq()
	switch v := c.Value.(type) {
	case ir.Null:
		if t.CanBeNull() || t.IsSequence() {
			return ir.NewNull(t)
		}
	case ir.Bool:
		if req == types.Bit {
			return ir.NewConstant(v, t)
		}
	case ir.Int:
		switch {
		case req.IsInteger() && types.Fits(req, v.Big()):
			return ir.NewConstant(v, t)
		case req.IsFloat():
			f, exact := toFloat(req, v.Big())
			if !exact {
				r.warn(CodePrecision, n, "%s is not exactly representable as %s", v, req)
			}
			return ir.NewFloat(f, t)
		}
	case ir.Float:
		if req.IsFloat() {
			return ir.NewFloat(float64(v), t)
		}
	case ir.Text:
		if req == types.Text {
			return ir.NewConstant(v, t)
		}
	}
	return n
}

// castItems pushes a sequence cast into the items of a literal so that it
// stays a literal.
func (r *reducer) castItems(n *ir.Cast, lit *ir.SequenceLit) ir.Node {
	item := n.Type().ItemType()
	items := make([]ir.Node, len(lit.Items))
	for i, it := range lit.Items {
		if !types.Accepts(item, it.Type()) {
			return n
		}
		items[i] = it
		if c, ok := ir.NewCast(it, item).(*ir.Cast); ok {
			items[i] = r.cast(c)
		}
	}
	return ir.NewSequence(n.Type(), items...)
}

func toFloat(t types.DType, v *big.Int) (float64, bool) {
	bf := new(big.Float).SetInt(v)
	if t == types.R4 {
		f, acc := bf.Float32()
		return float64(f), acc == big.Exact
	}
	f, acc := bf.Float64()
	return f, acc == big.Exact
}

func (r *reducer) unary(n *ir.Unary) ir.Node {
	if inner, ok := n.Arg.(*ir.Unary); ok && inner.Op == n.Op {
		return inner.Arg
	}
	t := n.Type()
	switch n.Op {
	case ir.UnaryNegate:
		if v, ok := intOf(n.Arg); ok {
			return r.intConst(n, t, new(big.Int).Neg(v))
		}
		if f, ok := floatOf(n.Arg); ok {
			return ir.NewFloat(-f, t)
		}
	case ir.UnaryNot:
		if b, ok := bitOf(n.Arg); ok {
			return ir.NewBit(!b)
		}
		if v, ok := intOf(n.Arg); ok {
			if t.IsUnsigned() {
				return ir.NewBig(new(big.Int).Sub(ir.AllOnes(t), v), t)
			}
			return ir.NewBig(new(big.Int).Not(v), t)
		}
	}
	return n
}

func (r *reducer) binary(n *ir.Binary) ir.Node {
	t := n.Type()
	if t.IsFloat() {
		return r.floatBinary(n)
	}
	a, okA := intOf(n.Left)
	b, okB := intOf(n.Right)
	if !okB {
		return n
	}
	switch n.Op {
	case ir.BinaryShl:
		if b.Sign() == 0 {
			return n.Left
		}
		if !okA || b.Sign() < 0 || !b.IsInt64() || b.Int64() > int64(max(t.BitWidth(), 64)) {
			return n
		}
		w, _ := wrap(t, new(big.Int).Lsh(a, uint(b.Int64())))
		return ir.NewBig(w, t)
	case ir.BinaryIntDiv, ir.BinaryMod:
		if b.Sign() == 0 {
			r.warn(CodeDivideByZero, n, "%s by zero", n.Op)
			if !pure(n.Left) {
				return n
			}
			return ir.DefaultOf(t)
		}
		if n.Op == ir.BinaryIntDiv && b.Cmp(big.NewInt(1)) == 0 {
			return n.Left
		}
		if !okA {
			return n
		}
		if n.Op == ir.BinaryIntDiv {
			return r.intConst(n, t, new(big.Int).Quo(a, b))
		}
		return ir.NewBig(new(big.Int).Rem(a, b), t)
	}
	return n
}

// floatBinary folds Mod on floats. Division by zero follows IEEE-754 but is
// still reported.
func (r *reducer) floatBinary(n *ir.Binary) ir.Node {
	b, okB := floatOf(n.Right)
	if !okB || n.Op != ir.BinaryMod {
		return n
	}
	if b == 0 {
		r.warn(CodeDivideByZero, n, "%s by zero", n.Op)
	}
	a, okA := floatOf(n.Left)
	if !okA {
		return n
	}
	return ir.NewFloat(roundFloat(n.Type(), math.Mod(a, b)), n.Type())
}

// flatten splices nested operands of the same operator into n's operand
// list, combining inverted bits. Float chains only flatten their leftmost
// operand so that evaluation order is kept.
func flatten(n *ir.Variadic) ([]ir.Node, []bool) {
	t := n.Type()
	leftOnly := t.IsFloat()
	var args []ir.Node
	var inv []bool
	for i, a := range n.Args {
		c, ok := a.(*ir.Variadic)
		if ok && c.Op == n.Op && sameFamily(c.Type(), t) && (!leftOnly || (i == 0 && !n.Inverted[0])) {
			for j, ca := range c.Args {
				args = append(args, ca)
				inv = append(inv, c.Inverted[j] != n.Inverted[i])
			}
			continue
		}
		args = append(args, a)
		inv = append(inv, n.Inverted[i])
	}
	return args, inv
}

func sameFamily(a, b types.DType) bool {
	if a.IsTuple() || a.IsRecord() {
		return a.Kind() == b.Kind() && !a.IsOpt() && !b.IsOpt()
	}
	return a == b
}

func (r *reducer) variadic(n *ir.Variadic) ir.Node {
	t := n.Type()
	args, inv := flatten(n)
	flat := len(args) != len(n.Args)
	switch {
	case n.Op == ir.VarConcat:
		return r.concat(n, args, flat)
	case t.IsFloat():
		return r.floats(n, args, inv, flat)
	case t == types.Bit:
		return r.bits(n, args, flat)
	case t.IsInteger():
		return r.ints(n, args, inv, flat)
	}
	if flat {
		return ir.NewVariadic(n.Op, t, args, inv)
	}
	return n
}

// ints folds every constant operand of an integer chain into one constant,
// placed last. The operators are associative and commutative modulo the
// type's width, so the folded constant is wrapped once at the end.
func (r *reducer) ints(n *ir.Variadic, args []ir.Node, inv []bool, flat bool) ir.Node {
	t := n.Type()
	var acc *big.Int
	consts, last := 0, false
	var rest []ir.Node
	var rinv []bool
	for i, a := range args {
		v, ok := intOf(a)
		if !ok || (inv[i] && n.Op != ir.VarAdd) {
			rest = append(rest, a)
			rinv = append(rinv, inv[i])
			last = false
			continue
		}
		if acc == nil {
			acc = identityInt(n.Op, t)
		}
		acc = combineInt(n.Op, acc, v, inv[i])
		consts++
		last = true
	}
	if acc == nil {
		if flat {
			return ir.NewVariadic(n.Op, t, rest, rinv)
		}
		return n
	}

	w, fits := wrap(t.ToReq(), acc)
	if sink, ok := sinkInt(n.Op, t); ok && w.Cmp(sink) == 0 && allPure(rest) {
		return r.intConst(n, t, acc)
	}
	isIdentity := w.Cmp(identityInt(n.Op, t)) == 0
	if isIdentity && !fits && len(rest) > 0 {
		r.warn(CodeOverflow, n, "%s overflows %s, wrapped to %s", acc, t.ToReq(), w)
	}
	if !flat && consts == 1 && last && !isIdentity {
		return n
	}
	if len(rest) == 0 {
		return r.intConst(n, t, acc)
	}
	if isIdentity {
		return ir.NewVariadic(n.Op, t, rest, rinv)
	}
	k, kinv := r.addend(n, t, acc)
	if n.Op != ir.VarAdd {
		k, kinv = r.intConst(n, t, acc), false
	}
	return ir.NewVariadic(n.Op, t, append(rest, k), append(rinv, kinv))
}

// addend returns the folded constant of an Add chain. Negative sums are
// written as subtractions when the magnitude fits, and a sum that fits only
// negated (the signed boundary) is written as the subtraction of its
// negation.
func (r *reducer) addend(at ir.Node, t types.DType, v *big.Int) (ir.Node, bool) {
	req := t.ToReq()
	neg := new(big.Int).Neg(v)
	switch {
	case v.Sign() < 0 && types.Fits(req, neg):
		return ir.NewBig(neg, t), true
	case types.Fits(req, v):
		return ir.NewBig(v, t), false
	case types.Fits(req, neg):
		return ir.NewBig(neg, t), true
	}
	return r.intConst(at, t, v), false
}

func identityInt(op ir.VarOp, t types.DType) *big.Int {
	switch op {
	case ir.VarMul:
		return big.NewInt(1)
	case ir.VarAnd:
		return ir.AllOnes(t.ToReq())
	}
	return big.NewInt(0)
}

func sinkInt(op ir.VarOp, t types.DType) (*big.Int, bool) {
	switch op {
	case ir.VarMul, ir.VarAnd:
		return big.NewInt(0), true
	case ir.VarOr:
		return ir.AllOnes(t.ToReq()), true
	}
	return nil, false
}

func combineInt(op ir.VarOp, acc, v *big.Int, inverted bool) *big.Int {
	out := new(big.Int)
	switch op {
	case ir.VarAdd:
		if inverted {
			return out.Sub(acc, v)
		}
		return out.Add(acc, v)
	case ir.VarMul:
		return out.Mul(acc, v)
	case ir.VarAnd:
		return out.And(acc, v)
	case ir.VarOr:
		return out.Or(acc, v)
	}
	return out.Xor(acc, v)
}

func allPure(ns []ir.Node) bool {
	for _, n := range ns {
		if !pure(n) {
			return false
		}
	}
	return true
}

// bits folds a boolean chain.
func (r *reducer) bits(n *ir.Variadic, args []ir.Node, flat bool) ir.Node {
	var rest []ir.Node
	parity, changed := false, flat
	for _, a := range args {
		b, ok := bitOf(a)
		if !ok {
			rest = append(rest, a)
			continue
		}
		switch {
		case n.Op == ir.VarAnd && !b, n.Op == ir.VarOr && b:
			if allPure(args) {
				return ir.NewBit(b)
			}
			rest = append(rest, a)
			continue
		case n.Op == ir.VarXor:
			parity = parity != b
		}
		changed = true
	}
	if !changed {
		return n
	}
	if parity {
		rest = append(rest, ir.NewBit(true))
	}
	return ir.NewVariadic(n.Op, types.Bit, rest, nil)
}

// floats folds the leading run of constants of a float chain, left to
// right with IEEE-754 semantics, and drops exact identity operands: -0 for
// addition, +0 for subtraction and 1 for multiplication and division.
func (r *reducer) floats(n *ir.Variadic, args []ir.Node, inv []bool, flat bool) ir.Node {
	t := n.Type()
	k := 0
	acc := identityFloat(n.Op)
	for k < len(args) {
		f, ok := floatOf(args[k])
		if !ok {
			break
		}
		if n.Op == ir.VarMul && inv[k] && f == 0 {
			r.warn(CodeDivideByZero, n, "division by zero")
		}
		acc = roundFloat(t, combineFloat(n.Op, acc, f, inv[k]))
		k++
	}

	var rest []ir.Node
	var rinv []bool
	dropped := false
	for i := k; i < len(args); i++ {
		if f, ok := floatOf(args[i]); ok && isFloatIdentity(n.Op, f, inv[i]) {
			dropped = true
			continue
		}
		rest = append(rest, args[i])
		rinv = append(rinv, inv[i])
	}
	changed := flat || dropped || k > 1 || (k == 1 && (inv[0] || isFloatIdentity(n.Op, acc, false)))
	if !changed {
		return n
	}
	if len(rest) == 0 {
		return ir.NewFloat(acc, t)
	}
	if k > 0 && !isFloatIdentity(n.Op, acc, false) {
		rest = append([]ir.Node{ir.NewFloat(acc, t)}, rest...)
		rinv = append([]bool{false}, rinv...)
	}
	return ir.NewVariadic(n.Op, t, rest, rinv)
}

func identityFloat(op ir.VarOp) float64 {
	if op == ir.VarMul {
		return 1
	}
	return math.Copysign(0, -1)
}

func isFloatIdentity(op ir.VarOp, f float64, inverted bool) bool {
	if op == ir.VarMul {
		return f == 1
	}
	if inverted {
		return f == 0 && !math.Signbit(f)
	}
	return f == 0 && math.Signbit(f)
}

func combineFloat(op ir.VarOp, acc, f float64, inverted bool) float64 {
	switch {
	case op == ir.VarAdd && inverted:
		return acc - f
	case op == ir.VarAdd:
		return acc + f
	case inverted:
		return acc / f
	}
	return acc * f
}
