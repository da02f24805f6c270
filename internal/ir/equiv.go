package ir

import (
	"maps"
	"slices"
)

// Equivalent reports whether a and b compute the same value under a
// consistent renaming of scopes and globals.
//
// scopes maps scopes of a to the scopes of b they stand for; globals maps
// global names of a to names in b. Either may be nil. A scope of a missing
// from the map only matches itself. Scopes introduced inside the compared
// trees are paired up as the comparison descends, so two trees built by
// separate binding runs compare equal.
func Equivalent(a, b Node, scopes map[*Scope]*Scope, globals map[string]string) bool {
	e := &equiv{scopes: scopes, globals: globals}
	return e.eq(a, b)
}

type equiv struct {
	scopes  map[*Scope]*Scope
	globals map[string]string
}

func (e *equiv) scope(a, b *Scope) bool {
	if a == nil || b == nil {
		return a == b
	}
	if m, ok := e.scopes[a]; ok {
		return m == b
	}
	return a == b
}

// bind pairs owned scopes a[i] with b[i] for the duration of a subtree.
func (e *equiv) bind(a, b []*Scope) (*equiv, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	next := &equiv{scopes: maps.Clone(e.scopes), globals: e.globals}
	if next.scopes == nil {
		next.scopes = make(map[*Scope]*Scope, len(a))
	}
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) {
			return nil, false
		}
		if a[i] == nil {
			continue
		}
		if a[i].Kind() != b[i].Kind() || a[i].Type() != b[i].Type() {
			return nil, false
		}
		next.scopes[a[i]] = b[i]
	}
	return next, true
}

func (e *equiv) all(as, bs []Node) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !e.eq(as[i], bs[i]) {
			return false
		}
	}
	return true
}

func (e *equiv) eq(a, b Node) bool {
	if a == b && (len(e.scopes) == 0 || !a.Mask().Has(KindScopeRef)) &&
		(len(e.globals) == 0 || !a.Mask().Has(KindGlobal)) {
		return true
	}
	if a.Kind() != b.Kind() || a.Type() != b.Type() {
		return false
	}
	switch x := a.(type) {
	case *Constant:
		return SameValue(x.Value, b.(*Constant).Value)
	case *Default, *Missing:
		return true
	case *Error:
		return x.Message == b.(*Error).Message
	case *Namespace:
		return x.Path == b.(*Namespace).Path
	case *ScopeRef:
		return e.scope(x.Scope, b.(*ScopeRef).Scope)
	case *Global:
		y := b.(*Global)
		if m, ok := e.globals[x.Name]; ok {
			return m == y.Name
		}
		return x.Name == y.Name
	case *GetField:
		y := b.(*GetField)
		return x.Name == y.Name && e.eq(x.Record, y.Record)
	case *GetSlot:
		y := b.(*GetSlot)
		return x.Slot == y.Slot && e.eq(x.Tuple, y.Tuple)
	case *Index, *Cast, *If, *SequenceLit, *TupleLit:
		return e.all(a.Children(), b.Children())
	case *Unary:
		y := b.(*Unary)
		return x.Op == y.Op && e.eq(x.Arg, y.Arg)
	case *Binary:
		y := b.(*Binary)
		return x.Op == y.Op && e.eq(x.Left, y.Left) && e.eq(x.Right, y.Right)
	case *Variadic:
		y := b.(*Variadic)
		return x.Op == y.Op && slices.Equal(x.Inverted, y.Inverted) && e.all(x.Args, y.Args)
	case *Compare:
		y := b.(*Compare)
		return slices.Equal(x.Ops(), y.Ops()) && e.all(x.Args, y.Args)
	case *RecordLit:
		y := b.(*RecordLit)
		return slices.Equal(x.Names, y.Names) && e.all(x.Values, y.Values)
	case *TensorLit:
		y := b.(*TensorLit)
		return slices.Equal(x.Shape, y.Shape) && e.all(x.Items, y.Items)
	case *Call:
		y := b.(*Call)
		if x.Op != y.Op || x.Purity != y.Purity {
			return false
		}
		inner, ok := e.bind(append(slices.Clone(x.Scopes), x.Index), append(slices.Clone(y.Scopes), y.Index))
		return ok && inner.all(x.Args, y.Args)
	case *GroupBy:
		y := b.(*GroupBy)
		if !e.eq(x.Source, y.Source) {
			return false
		}
		inner, ok := e.bind([]*Scope{x.Scope}, []*Scope{y.Scope})
		return ok && inner.eq(x.Key, y.Key)
	case *SetFields:
		y := b.(*SetFields)
		if !slices.Equal(x.Names, y.Names) || !e.eq(x.Record, y.Record) {
			return false
		}
		inner, ok := e.bind([]*Scope{x.Scope}, []*Scope{y.Scope})
		return ok && inner.all(x.Values, y.Values)
	}
	return false
}
