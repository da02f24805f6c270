package binder

import (
	"slices"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/types"
)

// liftStep is one wrapper removed from an argument type.
type liftStep struct {
	kind ops.Lifts
	rank int // tensor rank, for LiftTensor
}

// liftOrder is the order in which wrapper categories are lifted, outermost
// first. Optionals go before tensors so that an optional tensor and a plain
// tensor are iterated together.
var liftOrder = []ops.Lifts{ops.LiftSeq, ops.LiftOpt, ops.LiftTensor}

// strip removes the wrappers allowed by lifts from t, outermost first.
func strip(t types.DType, lifts ops.Lifts) (types.DType, []liftStep) {
	var steps []liftStep
	for {
		switch {
		case lifts.Has(ops.LiftSeq) && t.IsSequence():
			steps = append(steps, liftStep{kind: ops.LiftSeq})
			t = t.ItemType()
		case lifts.Has(ops.LiftOpt) && t.IsOpt():
			steps = append(steps, liftStep{kind: ops.LiftOpt})
			t = t.ToReq()
		case lifts.Has(ops.LiftTensor) && t.IsTensor() && !t.IsOpt():
			steps = append(steps, liftStep{kind: ops.LiftTensor, rank: t.TensorRank()})
			t = t.ItemType()
		default:
			return t, steps
		}
	}
}

// rewrap reapplies stripped wrappers to t.
func rewrap(t types.DType, steps []liftStep) types.DType {
	for _, s := range slices.Backward(steps) {
		switch s.kind {
		case ops.LiftSeq:
			t = types.Sequence(t)
		case ops.LiftOpt:
			t = t.ToOpt()
		case ops.LiftTensor:
			t = types.Tensor(t, s.rank)
		}
	}
	return t
}

// pending reports whether some argument still needs lifting over cat.
func (c *call) pending(cat ops.Lifts) bool {
	for i := range c.args {
		if c.liftable(i, cat) {
			return true
		}
	}
	return false
}

func (c *call) liftable(i int, cat ops.Lifts) bool {
	if c.scopes[i] != nil {
		return len(c.lifts[i]) > 0 && c.lifts[i][0].kind == cat
	}
	if !c.slots[i].Lifts.Has(cat) {
		return false
	}
	t := c.args[i].Type()
	switch cat {
	case ops.LiftSeq:
		return t.IsSequence()
	case ops.LiftOpt:
		return t.IsOpt()
	case ops.LiftTensor:
		return t.IsTensor() && !t.IsOpt()
	}
	return false
}

// liftCall replaces every argument liftable over cat by the item of a
// wrapper scope, binds the rest of the call inside, and wraps the result:
// Map for sequences, Guard for optionals, Tensor.ForEach for tensors.
// Several lifted arguments are zipped by one wrapper.
func (b *binder) liftCall(c *call, cat ops.Lifts) (ir.Node, bool) {
	inner := c.clone()
	var srcs []ir.Node
	var wrappers []*ir.Scope
	rank := -1
	for i := range c.args {
		if !c.liftable(i, cat) {
			continue
		}
		src := c.args[i]
		t := src.Type()
		var s *ir.Scope
		switch cat {
		case ops.LiftSeq:
			s = ir.NewScope(ir.ScopeSequenceItem, t.ItemType(), "")
		case ops.LiftOpt:
			s = ir.NewScope(ir.ScopeGuard, t.ToReq(), "")
		case ops.LiftTensor:
			if rank >= 0 && t.TensorRank() != rank {
				if c.hasErrors() {
					return ir.NewError(types.General, ""), false
				}
				msg := b.report(CodeTypeMismatch, c.inv.argRange(i), "",
					"%s over tensors of rank %d and %d", c.inv.op.Path(), rank, t.TensorRank())
				return ir.NewError(types.General, msg), false
			}
			rank = t.TensorRank()
			s = ir.NewScope(ir.ScopeTensorItem, t.ItemType(), "")
		}
		srcs = append(srcs, src)
		wrappers = append(wrappers, s)
		inner.args[i] = s.Ref()
		if c.scopes[i] != nil {
			inner.lifts[i] = c.lifts[i][1:]
		}
	}

	body, retry := b.finish(inner)
	if retry {
		return nil, true
	}
	return wrap(wrapperKind(cat), srcs, wrappers, body), false
}

func wrapperKind(cat ops.Lifts) ir.ScopeKind {
	switch cat {
	case ops.LiftOpt:
		return ir.ScopeGuard
	case ops.LiftTensor:
		return ir.ScopeTensorItem
	}
	return ir.ScopeSequenceItem
}

// wrap builds the call iterating or guarding srcs through scopes around
// body.
func wrap(kind ir.ScopeKind, srcs []ir.Node, scopes []*ir.Scope, body ir.Node) ir.Node {
	args := append(slices.Clone(srcs), body)
	ss := append(slices.Clone(scopes), nil)
	switch kind {
	case ir.ScopeGuard:
		return ir.NewCall(ops.Guard, body.Type().ToOpt(), args, ss, nil, ir.Pure)
	case ir.ScopeTensorItem:
		rank := srcs[0].Type().TensorRank()
		return ir.NewCall(ops.TensorForEach, types.Tensor(body.Type(), rank), args, ss, nil, ir.Pure)
	}
	return ir.NewCall(ops.Map, types.Sequence(body.Type()), args, ss, nil, ir.Pure)
}

// liftOne applies f to the item (or non-null value) of src inside a
// wrapper of the given kind.
func liftOne(src ir.Node, kind ir.ScopeKind, f func(ir.Node) ir.Node) ir.Node {
	t := src.Type()
	st := t.ItemType()
	if kind == ir.ScopeGuard {
		st = t.ToReq()
	}
	s := ir.NewScope(kind, st, "")
	return wrap(kind, []ir.Node{src}, []*ir.Scope{s}, f(s.Ref()))
}
