package reduce

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/types"
)

// binding is one scope of a With or Guard wrapper and the value it binds.
type binding struct {
	scope *ir.Scope
	value ir.Node
}

func isAlias(c *ir.Call) bool { return c.Op == ops.With || c.Op == ops.Guard }

func bindingsOf(w *ir.Call) ([]binding, ir.Node) {
	n := len(w.Args)
	bs := make([]binding, n-1)
	for i := range n - 1 {
		bs[i] = binding{scope: w.Scopes[i], value: w.Args[i]}
	}
	return bs, w.Args[n-1]
}

func hasGuard(bs []binding) bool {
	return lo.SomeBy(bs, func(b binding) bool { return b.scope.Kind() == ir.ScopeGuard })
}

func pure(n ir.Node) bool { return !n.Mask().IsImpure() }

// newWith wraps body in a With call binding bs.
func newWith(bs []binding, body ir.Node) *ir.Call {
	return newAlias(ops.With, body.Type(), bs, body)
}

func newAlias(op *ops.Op, t types.DType, bs []binding, body ir.Node) *ir.Call {
	args := make([]ir.Node, 0, len(bs)+1)
	scopes := make([]*ir.Scope, 0, len(bs)+1)
	for _, b := range bs {
		args = append(args, b.value)
		scopes = append(scopes, b.scope)
	}
	args = append(args, body)
	scopes = append(scopes, nil)
	return ir.NewCall(op, t, args, scopes, nil, ir.Pure)
}

// freshen re-instantiates the scopes of wrapper w that are already in seen,
// renaming their references.
func freshen(w *ir.Call, seen *set.Set[*ir.Scope]) *ir.Call {
	m := make(map[*ir.Scope]*ir.Scope)
	scopes := slices.Clone(w.Scopes)
	for i, s := range scopes {
		if s != nil && seen.Contains(s) {
			ns := s.Clone()
			m[s] = ns
			scopes[i] = ns
		}
	}
	if len(m) == 0 {
		return w
	}
	args := make([]ir.Node, len(w.Args))
	for i, a := range w.Args {
		args[i] = ir.Rename(a, m)
	}
	return ir.NewCall(w.Op, w.Type(), args, scopes, w.Index, w.Purity)
}

// hoist pulls With wrappers out of the operands of n. An operand qualifies
// when it is evaluated once per evaluation of n, its bound values are pure
// and they do not refer to scopes n introduces. It returns the unwrapped
// operands and the bindings to place around n. Guard wrappers stay put,
// since hoisting one would null all of n; splice merges them into an
// enclosing With or Guard instead.
func (r *reducer) hoist(n ir.Node) ([]ir.Node, []binding) {
	kids := n.Children()
	movable := func(int) bool { return true }
	var owned *set.Set[*ir.Scope]
	switch v := n.(type) {
	case *ir.If:
		movable = func(i int) bool { return i == 0 }
	case *ir.Call:
		arity := len(v.Args)
		movable = func(i int) bool { return !v.Op.IsLoopSlot(i, arity) }
		owned = set.From(ir.OwnedScopes(v))
	case *ir.GroupBy, *ir.SetFields:
		return kids, nil
	}

	var out []ir.Node
	var bs []binding
	seen := set.New[*ir.Scope](0)
	for i, k := range kids {
		w, ok := k.(*ir.Call)
		if !ok || w.Op != ops.With || !movable(i) {
			continue
		}
		wbs, _ := bindingsOf(w)
		if lo.SomeBy(wbs, func(b binding) bool { return !pure(b.value) || ir.UsesAny(b.value, owned) }) {
			continue
		}
		w = freshen(w, seen)
		wbs, body := bindingsOf(w)
		for _, b := range wbs {
			seen.Insert(b.scope)
		}
		if out == nil {
			out = slices.Clone(kids)
		}
		out[i] = body
		bs = append(bs, wbs...)
	}
	if len(bs) == 0 {
		return kids, nil
	}
	return out, bs
}

// splice merges nested wrappers into c's own bindings: a wrapper bound by a
// scope slot contributes its bindings ahead of that slot, and a wrapper
// body contributes its bindings after the last slot. A wrapper with Guard
// scopes is merged only where a null would null c anyway.
func splice(c *ir.Call) ([]binding, ir.Node, bool) {
	own, body := bindingsOf(c)
	seen := set.New[*ir.Scope](len(own))
	for _, b := range own {
		seen.Insert(b.scope)
	}
	var bs []binding
	changed := false
	for _, b := range own {
		if w, ok := b.value.(*ir.Call); ok && isAlias(w) {
			wbs, _ := bindingsOf(w)
			if !hasGuard(wbs) || b.scope.Kind() == ir.ScopeGuard {
				w = freshen(w, seen)
				wbs, inner := bindingsOf(w)
				for _, x := range wbs {
					seen.Insert(x.scope)
				}
				bs = append(bs, wbs...)
				b.value = inner
				changed = true
			}
		}
		bs = append(bs, b)
	}
	if w, ok := body.(*ir.Call); ok && isAlias(w) {
		w = freshen(w, seen)
		wbs, inner := bindingsOf(w)
		bs = append(bs, wbs...)
		body = inner
		changed = true
	}
	return bs, body, changed
}

// alias simplifies a With or Guard call: nested wrappers are merged, guards
// over values that cannot be null become plain bindings, constants and
// plain references are substituted into their uses and unused pure
// bindings are dropped. A guard over a null constant makes the whole call
// null.
func (r *reducer) alias(c *ir.Call) ir.Node {
	t := c.Type()
	bs, body, changed := splice(c)

	sub := make(map[*ir.Scope]ir.Node)
	kept := make([]binding, 0, len(bs))
	for _, b := range bs {
		if len(sub) > 0 {
			if v := ir.Substitute(b.value, sub); v != b.value {
				b.value = r.reduce(v)
			}
		}
		orig := b.scope
		if orig.Kind() == ir.ScopeGuard {
			if isNull(b.value) && (t.CanBeNull() || t.IsSequence()) &&
				lo.EveryBy(kept, func(k binding) bool { return pure(k.value) }) {
				return ir.NewNull(t)
			}
			if v, ok := notNull(b.value, orig.Type()); ok {
				s := orig.AsKind(ir.ScopeWith)
				sub[orig] = s.Ref()
				b = binding{scope: s, value: v}
				changed = true
			}
		}
		if b.scope.Kind() == ir.ScopeWith && inlinable(b.value) && b.value.Type() == orig.Type() {
			sub[orig] = b.value
			changed = true
			continue
		}
		kept = append(kept, b)
	}
	if len(sub) > 0 {
		if v := ir.Substitute(body, sub); v != body {
			body = r.reduce(v)
		}
	}

	for i := len(kept) - 1; i >= 0; i-- {
		b := kept[i]
		if b.scope.Kind() != ir.ScopeWith || !pure(b.value) {
			continue
		}
		used := ir.Uses(body, b.scope) ||
			lo.SomeBy(kept[i+1:], func(x binding) bool { return ir.Uses(x.value, b.scope) })
		if !used {
			kept = slices.Delete(kept, i, i+1)
			changed = true
		}
	}

	if !changed {
		return c
	}
	if len(kept) == 0 {
		return r.fit(body, t)
	}
	if hasGuard(kept) {
		if body.Type().ToOpt() != t {
			return c
		}
		return newAlias(ops.Guard, t, kept, body)
	}
	body = r.fit(body, t)
	if body.Type() != t {
		return c
	}
	return newAlias(ops.With, t, kept, body)
}

// fit widens n to t when their types differ.
func (r *reducer) fit(n ir.Node, t types.DType) ir.Node {
	if n.Type() == t || !types.Accepts(t, n.Type()) {
		return n
	}
	return r.local(ir.NewCast(n, t))
}

// notNull returns value as a non-null node of type st when it provably is
// never null.
func notNull(v ir.Node, st types.DType) (ir.Node, bool) {
	switch x := v.(type) {
	case *ir.Constant:
		if !x.IsNull() && v.Type().ToReq() == st {
			return ir.NewConstant(x.Value, st), true
		}
	case *ir.Cast:
		if x.Arg.Type() == st && !ir.MayBeNull(x.Arg) {
			return x.Arg, true
		}
	}
	if v.Type() == st && !st.CanBeNull() {
		return v, true
	}
	return nil, false
}

// inlinable reports whether substituting v for every use of its scope keeps
// the tree from growing.
func inlinable(v ir.Node) bool {
	switch v.(type) {
	case *ir.Constant, *ir.ScopeRef, *ir.Global:
		return true
	}
	return false
}

// call simplifies operator calls with a known shape: loops over empty
// sequences, identity maps and counts of literal sequences.
func (r *reducer) call(c *ir.Call) ir.Node {
	n := len(c.Args)
	switch c.Op {
	case ops.Map:
		srcs := c.Args[:n-1]
		if lo.SomeBy(srcs, isEmpty) && lo.EveryBy(srcs, pure) {
			return ir.NewSequence(c.Type())
		}
		if identityLoop(c) {
			return c.Args[0]
		}
	case ops.TensorForEach:
		if identityLoop(c) {
			return c.Args[0]
		}
	case ops.Fold:
		if isEmpty(c.Args[0]) {
			return r.fit(c.Args[1], c.Type())
		}
	case ops.Count:
		if lit, ok := c.Args[0].(*ir.SequenceLit); ok && pure(lit) {
			return ir.NewInt64(int64(len(lit.Items)), c.Type())
		}
		if isNull(c.Args[0]) {
			return ir.NewInt64(0, c.Type())
		}
	}
	return c
}

// identityLoop reports whether c maps its single source to itself.
func identityLoop(c *ir.Call) bool {
	if len(c.Args) != 2 {
		return false
	}
	ref, ok := c.Args[1].(*ir.ScopeRef)
	return ok && ref.Scope == c.Scopes[0] && c.Args[0].Type() == c.Type()
}

func isEmpty(n ir.Node) bool {
	if c, ok := n.(*ir.Cast); ok {
		n = c.Arg
	}
	if lit, ok := n.(*ir.SequenceLit); ok {
		return len(lit.Items) == 0
	}
	return isNull(n)
}
