package ir

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Visitor receives pre and post callbacks during Walk.
type Visitor interface {
	// Pre is called before the children of n. Returning false skips the
	// children and the matching Post call.
	Pre(n Node) bool
	// Post is called after all children of n were walked.
	Post(n Node)
}

// Walk traverses the tree rooted at n depth first.
func Walk(v Visitor, n Node) {
	if !v.Pre(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(v, c)
	}
	v.Post(n)
}

type inspector func(Node) bool

func (f inspector) Pre(n Node) bool { return f(n) }
func (inspector) Post(Node)         {}

// Inspect calls f for every node in pre-order. Returning false prunes the
// subtree.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}

// Rebuild returns a node like n with the given children. When every child
// is unchanged n itself is returned. Factories may fold, so the result can
// have a different kind; the type is preserved as long as the children keep
// their types.
func Rebuild(n Node, kids []Node) Node {
	old := n.Children()
	invariant(len(old) == len(kids), "rebuild %s with %d children, want %d", n.Kind(), len(kids), len(old))
	if slices.Equal(old, kids) {
		return n
	}
	switch v := n.(type) {
	case *GetField:
		return NewGetField(kids[0], v.Name)
	case *GetSlot:
		return NewGetSlot(kids[0], v.Slot)
	case *Index:
		return NewIndex(kids[0], kids[1:]...)
	case *Cast:
		return NewCast(kids[0], v.Type())
	case *Unary:
		return NewUnary(v.Op, kids[0])
	case *Binary:
		return NewBinary(v.Op, kids[0], kids[1])
	case *Variadic:
		return NewVariadic(v.Op, v.Type(), kids, v.Inverted)
	case *Compare:
		return NewCompare(kids, v.Ops())
	case *If:
		return NewIf(kids[0], kids[1], kids[2])
	case *SequenceLit:
		return NewSequence(v.Type(), kids...)
	case *TupleLit:
		return NewTuple(kids...)
	case *RecordLit:
		return NewRecord(v.Names, kids)
	case *TensorLit:
		return NewTensor(v.Type().ItemType(), v.Shape, kids)
	case *Call:
		return NewCall(v.Op, v.Type(), kids, v.Scopes, v.Index, v.Purity)
	case *GroupBy:
		return NewGroupBy(kids[0], v.Scope, kids[1])
	case *SetFields:
		return NewSetFields(kids[0], v.Scope, v.Names, kids[1:])
	}
	panic("ir: rebuild of leaf " + n.Kind().String())
}

// Transform rewrites the tree bottom-up: f is applied to every node after
// its children were transformed. skip, when non-nil, prunes subtrees that
// cannot change.
func Transform(n Node, skip func(Node) bool, f func(Node) Node) Node {
	if skip != nil && skip(n) {
		return n
	}
	kids := n.Children()
	if len(kids) > 0 {
		nk := make([]Node, len(kids))
		for i, c := range kids {
			nk[i] = Transform(c, skip, f)
		}
		n = Rebuild(n, nk)
	}
	return f(n)
}

// Substitute replaces references to the scopes in m with the mapped nodes.
// Each replacement must have the scope's type.
func Substitute(n Node, m map[*Scope]Node) Node {
	if len(m) == 0 {
		return n
	}
	for s, r := range m {
		invariant(r.Type() == s.Type(), "substitute %s for scope of type %s", r.Type(), s.Type())
	}
	return Transform(n,
		func(x Node) bool { return !x.Mask().Has(KindScopeRef) },
		func(x Node) Node {
			if ref, ok := x.(*ScopeRef); ok {
				if r, ok := m[ref.Scope]; ok {
					return r
				}
			}
			return x
		})
}

// Rename replaces references to the scopes in m with references to the
// mapped scopes.
func Rename(n Node, m map[*Scope]*Scope) Node {
	sub := make(map[*Scope]Node, len(m))
	for from, to := range m {
		sub[from] = to.Ref()
	}
	return Substitute(n, sub)
}

// References returns the set of scopes referenced anywhere under n.
func References(n Node) *set.Set[*Scope] {
	refs := set.New[*Scope](0)
	Inspect(n, func(x Node) bool {
		if !x.Mask().Has(KindScopeRef) {
			return false
		}
		if r, ok := x.(*ScopeRef); ok {
			refs.Insert(r.Scope)
		}
		return true
	})
	return refs
}

// Uses reports whether s is referenced anywhere under n.
func Uses(n Node, s *Scope) bool {
	found := false
	Inspect(n, func(x Node) bool {
		if found || !x.Mask().Has(KindScopeRef) {
			return false
		}
		if r, ok := x.(*ScopeRef); ok && r.Scope == s {
			found = true
		}
		return !found
	})
	return found
}

// UsesAny reports whether any scope in ss is referenced under n.
func UsesAny(n Node, ss *set.Set[*Scope]) bool {
	if ss == nil || ss.Size() == 0 {
		return false
	}
	found := false
	Inspect(n, func(x Node) bool {
		if found || !x.Mask().Has(KindScopeRef) {
			return false
		}
		if r, ok := x.(*ScopeRef); ok && ss.Contains(r.Scope) {
			found = true
		}
		return !found
	})
	return found
}
