package reduce

import (
	"slices"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/types"
)

// concat merges adjacent literal operands of a concatenation and drops
// empty ones.
func (r *reducer) concat(n *ir.Variadic, args []ir.Node, flat bool) ir.Node {
	t := n.Type()
	var merge func(a, b ir.Node) (ir.Node, bool)
	var empty func(a ir.Node) bool
	switch {
	case t == types.Text:
		merge = mergeText
		empty = emptyText
	case t.IsSequence():
		merge = func(a, b ir.Node) (ir.Node, bool) { return mergeSequence(t, a, b) }
		empty = isEmpty
	case t.IsTuple():
		merge = mergeTuple
		empty = emptyTuple
	case t.IsRecord():
		merge = mergeRecord
		empty = emptyRecord
	default:
		if flat {
			return ir.NewVariadic(n.Op, t, args, nil)
		}
		return n
	}

	changed := flat
	out := make([]ir.Node, 0, len(args))
	for _, a := range args {
		if empty(a) {
			changed = true
			continue
		}
		if k := len(out); k > 0 {
			if m, ok := merge(out[k-1], a); ok {
				out[k-1] = m
				changed = true
				continue
			}
		}
		out = append(out, a)
	}
	if !changed {
		return n
	}
	if len(out) == 1 && out[0].Type() != t {
		return n
	}
	return ir.NewVariadic(ir.VarConcat, t, out, nil)
}

func emptyText(n ir.Node) bool {
	s, ok := textOf(n)
	return ok && s == ""
}

func emptyTuple(n ir.Node) bool {
	lit, ok := n.(*ir.TupleLit)
	return ok && len(lit.Items) == 0
}

func emptyRecord(n ir.Node) bool {
	lit, ok := n.(*ir.RecordLit)
	return ok && len(lit.Names) == 0
}

func mergeText(a, b ir.Node) (ir.Node, bool) {
	x, okA := textOf(a)
	y, okB := textOf(b)
	if !okA || !okB {
		return nil, false
	}
	return ir.NewText(x + y), true
}

func mergeSequence(t types.DType, a, b ir.Node) (ir.Node, bool) {
	x, okA := a.(*ir.SequenceLit)
	y, okB := b.(*ir.SequenceLit)
	if !okA || !okB {
		return nil, false
	}
	return ir.NewSequence(t, slices.Concat(x.Items, y.Items)...), true
}

func mergeTuple(a, b ir.Node) (ir.Node, bool) {
	x, okA := a.(*ir.TupleLit)
	y, okB := b.(*ir.TupleLit)
	if !okA || !okB {
		return nil, false
	}
	return ir.NewTuple(slices.Concat(x.Items, y.Items)...), true
}

// mergeRecord merges two record literals, the later one winning. Values it
// would overwrite must be pure.
func mergeRecord(a, b ir.Node) (ir.Node, bool) {
	x, okA := a.(*ir.RecordLit)
	y, okB := b.(*ir.RecordLit)
	if !okA || !okB {
		return nil, false
	}
	for i, nm := range x.Names {
		if _, over := y.Lookup(nm); over && !pure(x.Values[i]) {
			return nil, false
		}
	}
	return ir.NewRecord(slices.Concat(x.Names, y.Names), slices.Concat(x.Values, y.Values)), true
}
