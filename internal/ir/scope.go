package ir

import (
	"fmt"

	"github.com/roach88/quill/internal/types"
)

// ScopeKind says what construct introduced a scope.
type ScopeKind uint8

const (
	// ScopeNone marks a slot that introduces no scope.
	ScopeNone ScopeKind = iota
	// ScopeIterate is a loop-carried accumulator (Fold).
	ScopeIterate
	// ScopeWith binds a value unconditionally.
	ScopeWith
	// ScopeGuard binds the non-null form of a value; the owner yields null
	// when the value is null.
	ScopeGuard
	// ScopeSequenceItem is the current item of a sequence loop.
	ScopeSequenceItem
	// ScopeTensorItem is the current item of a tensor loop.
	ScopeTensorItem
	// ScopeRange is a counter over a numeric range.
	ScopeRange
	// ScopeSequenceIndex is the zero-based position of a sequence loop.
	ScopeSequenceIndex
)

var scopeKindNames = [...]string{
	ScopeNone:          "None",
	ScopeIterate:       "Iterate",
	ScopeWith:          "With",
	ScopeGuard:         "Guard",
	ScopeSequenceItem:  "SequenceItem",
	ScopeTensorItem:    "TensorItem",
	ScopeRange:         "Range",
	ScopeSequenceIndex: "SequenceIndex",
}

func (k ScopeKind) String() string {
	if int(k) < len(scopeKindNames) {
		return scopeKindNames[k]
	}
	return fmt.Sprintf("ScopeKind(%d)", k)
}

// IsLoop reports whether the scope takes a new value per iteration.
func (k ScopeKind) IsLoop() bool {
	switch k {
	case ScopeIterate, ScopeSequenceItem, ScopeTensorItem, ScopeRange, ScopeSequenceIndex:
		return true
	}
	return false
}

// Scope is one lexically bound variable.
//
// Scopes have identity semantics: two scopes are the same only if they are
// the same pointer. The name is informational (dumps and diagnostics) and
// plays no part in resolution once binding is done.
type Scope struct {
	ord  int64
	kind ScopeKind
	typ  types.DType
	name string
	ref  *ScopeRef
}

// NewScope creates a scope and its canonical reference leaf.
func NewScope(kind ScopeKind, typ types.DType, name string) *Scope {
	if kind == ScopeNone {
		panic("ir: NewScope with ScopeNone")
	}
	if !typ.IsValid() {
		panic("ir: NewScope with invalid type")
	}
	if kind == ScopeRange || kind == ScopeSequenceIndex {
		typ = types.I8
	}
	s := &Scope{ord: nextOrdinal(), kind: kind, typ: typ, name: name}
	s.ref = &ScopeRef{
		base:  base{typ: typ, ord: nextOrdinal(), mask: MaskOf(KindScopeRef)},
		Scope: s,
	}
	return s
}

// Kind returns the scope kind.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Type returns the type of the bound value.
func (s *Scope) Type() types.DType { return s.typ }

// Name returns the declared (or implicit) name, possibly empty.
func (s *Scope) Name() string { return s.name }

// Ordinal returns the scope's construction ordinal.
func (s *Scope) Ordinal() int64 { return s.ord }

// Ref returns the scope's unique reference leaf.
func (s *Scope) Ref() *ScopeRef { return s.ref }

// Clone returns a fresh scope with the same kind, type and name.
func (s *Scope) Clone() *Scope { return NewScope(s.kind, s.typ, s.name) }

// WithType returns a fresh scope like s but with type t. Used when a binding
// is redone with a promoted type.
func (s *Scope) WithType(t types.DType) *Scope { return NewScope(s.kind, t, s.name) }

// AsKind returns a fresh scope like s with kind k.
func (s *Scope) AsKind(k ScopeKind) *Scope { return NewScope(k, s.typ, s.name) }

func (s *Scope) String() string {
	return fmt.Sprintf("%s:%s(%s)", s.name, s.typ, s.kind)
}

// ScopeStack is an immutable chain of visible scopes, innermost first.
// The zero-length stack is nil. Push never modifies the receiver, so a stack
// captured before binding a subtree remains valid afterwards.
type ScopeStack struct {
	scope *Scope
	name  string
	outer *ScopeStack
	depth int
}

// Push returns a stack with s visible under name on top of st.
func (st *ScopeStack) Push(s *Scope, name string) *ScopeStack {
	return &ScopeStack{scope: s, name: name, outer: st, depth: st.Depth() + 1}
}

// Depth returns the number of scopes on the stack.
func (st *ScopeStack) Depth() int {
	if st == nil {
		return 0
	}
	return st.depth
}

// Top returns the innermost scope, or nil.
func (st *ScopeStack) Top() *Scope {
	if st == nil {
		return nil
	}
	return st.scope
}

// Outer returns the stack below the top.
func (st *ScopeStack) Outer() *ScopeStack {
	if st == nil {
		return nil
	}
	return st.outer
}

// Lookup finds the innermost scope visible under name.
func (st *ScopeStack) Lookup(name string) (*Scope, bool) {
	for cur := st; cur != nil; cur = cur.outer {
		if cur.name == name && name != "" {
			return cur.scope, true
		}
	}
	return nil, false
}

// Find returns the innermost scope satisfying pred.
func (st *ScopeStack) Find(pred func(*Scope) bool) (*Scope, bool) {
	for cur := st; cur != nil; cur = cur.outer {
		if pred(cur.scope) {
			return cur.scope, true
		}
	}
	return nil, false
}

// Scopes returns the scopes on the stack, innermost first.
func (st *ScopeStack) Scopes() []*Scope {
	out := make([]*Scope, 0, st.Depth())
	for cur := st; cur != nil; cur = cur.outer {
		out = append(out, cur.scope)
	}
	return out
}

// Names returns the visible names, innermost first, skipping shadowed ones.
func (st *ScopeStack) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := st; cur != nil; cur = cur.outer {
		if cur.name == "" || seen[cur.name] {
			continue
		}
		seen[cur.name] = true
		out = append(out, cur.name)
	}
	return out
}
