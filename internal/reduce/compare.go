package reduce

import (
	"cmp"
	"math"
	"strings"

	"github.com/roach88/quill/internal/ir"
)

type outcome uint8

const (
	unknown outcome = iota
	holds
	fails
)

func outcomeOf(b bool) outcome {
	if b {
		return holds
	}
	return fails
}

// compare resolves the links of a chain that are decided by constants or by
// their null flags. A failing link makes the chain false; links that hold
// are trimmed from both ends of the chain.
func (r *reducer) compare(n *ir.Compare) ir.Node {
	if !pure(n) {
		return n
	}
	res := make([]outcome, len(n.Links))
	for k, l := range n.Links {
		res[k] = link(l, n.Args[k], n.Args[k+1])
		if res[k] == fails {
			return ir.NewBit(false)
		}
	}
	lo, hi := 0, len(res)
	for lo < hi && res[lo] == holds {
		lo++
	}
	for hi > lo && res[hi-1] == holds {
		hi--
	}
	switch {
	case lo == hi:
		return ir.NewBit(true)
	case lo == 0 && hi == len(res):
		return n
	}
	return ir.NewCompare(n.Args[lo:hi+1], n.Ops()[lo:hi])
}

// link decides one link of a chain. Null orders below every other value.
func link(l ir.Link, a, b ir.Node) outcome {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return outcomeOf(l.Op == ir.CmpEq || l.Op == ir.CmpLe || l.Op == ir.CmpGe)
	case an:
		return nullLink(l.LeftNull, b)
	case bn:
		return nullLink(l.RightNull, a)
	}
	av, okA := constValue(a)
	bv, okB := constValue(b)
	if okA && okB {
		return constLink(l.Op, av, bv)
	}
	if okA {
		return floatEdge(l.Op, av, b, true)
	}
	if okB {
		return floatEdge(l.Op, bv, a, false)
	}
	return unknown
}

func nullLink(f ir.NullTo, other ir.Node) outcome {
	switch f {
	case ir.NullToTrue:
		return holds
	case ir.NullToFalse:
		return fails
	case ir.NullToOtherNull:
		if !ir.MayBeNull(other) {
			return fails
		}
	case ir.NullToOtherNotNull:
		if !ir.MayBeNull(other) {
			return holds
		}
	}
	return unknown
}

func constLink(op ir.CmpOp, a, b ir.Value) outcome {
	var c int
	switch av := a.(type) {
	case ir.Int:
		c = av.Big().Cmp(b.(ir.Int).Big())
	case ir.Float:
		x, y := float64(av), float64(b.(ir.Float))
		if math.IsNaN(x) || math.IsNaN(y) {
			return outcomeOf(op == ir.CmpNe)
		}
		c = cmp.Compare(x, y)
	case ir.Text:
		c = strings.Compare(string(av), string(b.(ir.Text)))
	case ir.Bool:
		c = cmp.Compare(boolRank(bool(av)), boolRank(bool(b.(ir.Bool))))
	default:
		return unknown
	}
	return outcomeOf(holdsFor(op, c))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func holdsFor(op ir.CmpOp, c int) bool {
	switch op {
	case ir.CmpEq:
		return c == 0
	case ir.CmpNe:
		return c != 0
	case ir.CmpLt:
		return c < 0
	case ir.CmpLe:
		return c <= 0
	case ir.CmpGt:
		return c > 0
	}
	return c >= 0
}

// floatEdge decides links between a non-null operand and a NaN or infinite
// constant. left reports whether the constant is the link's left operand.
func floatEdge(op ir.CmpOp, v ir.Value, other ir.Node, left bool) outcome {
	f, ok := v.(ir.Float)
	if !ok || ir.MayBeNull(other) {
		return unknown
	}
	x := float64(f)
	if math.IsNaN(x) {
		return outcomeOf(op == ir.CmpNe)
	}
	if !math.IsInf(x, 0) {
		return unknown
	}
	// Normalize to "other op constant".
	if left {
		op = flip(op)
	}
	switch {
	case math.IsInf(x, 1) && op == ir.CmpGt, math.IsInf(x, -1) && op == ir.CmpLt:
		return fails
	}
	return unknown
}

func flip(op ir.CmpOp) ir.CmpOp {
	switch op {
	case ir.CmpLt:
		return ir.CmpGt
	case ir.CmpLe:
		return ir.CmpGe
	case ir.CmpGt:
		return ir.CmpLt
	case ir.CmpGe:
		return ir.CmpLe
	}
	return op
}

func (r *reducer) cond(n *ir.If) ir.Node {
	if b, ok := bitOf(n.Cond); ok {
		if b {
			return n.Then
		}
		return n.Else
	}
	if pure(n.Cond) && ir.Equivalent(n.Then, n.Else, nil, nil) {
		return n.Then
	}
	return n
}

// index replaces a constant out-of-range read of a literal tensor by the
// item default.
func (r *reducer) index(n *ir.Index) ir.Node {
	lit, ok := n.Tensor.(*ir.TensorLit)
	if !ok {
		return n
	}
	if pos, ok := ir.ConstantOffset(lit.Shape, n.Indices); ok && pos < 0 {
		r.warn(CodeIndexOutRange, n, "index out of range for tensor of shape %v", lit.Shape)
		if pure(lit) {
			return ir.DefaultOf(n.Type())
		}
	}
	return n
}
