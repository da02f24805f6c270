package ops

import (
	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/types"
)

// Lifts is the set of wrappers an operator can be broadcast over at a slot.
type Lifts uint8

const (
	LiftSeq Lifts = 1 << iota
	LiftTensor
	LiftOpt

	LiftNone Lifts = 0
	LiftAll        = LiftSeq | LiftTensor | LiftOpt
)

// Has reports whether l includes every lift in x.
func (l Lifts) Has(x Lifts) bool { return l&x == x }

// NameMode says whether an argument slot may carry a name.
type NameMode uint8

const (
	// NameForbidden rejects `name: expr` on the slot.
	NameForbidden NameMode = iota
	// NameOptional lets the slot name the scope it introduces.
	NameOptional
	// NameRequired demands a name (field assignments).
	NameRequired
)

// Slot is the contract of one argument slot for a given arity.
type Slot struct {
	// Scope is the kind of scope introduced by the slot, ScopeNone for
	// ordinary slots.
	Scope ir.ScopeKind
	// Lifts lists the wrappers the operator broadcasts over at this slot.
	Lifts Lifts
	// NestStart is the first slot whose scope is visible while binding this
	// slot: scopes of slots NestStart..slot-1 are visible, earlier ones are
	// disabled.
	NestStart int
	// Loop marks a slot evaluated once per iteration.
	Loop bool
	// Name is the naming policy of the slot.
	Name NameMode
	// Directive marks slots accepting [with] / [guard].
	Directive bool
	// NoVolatile rejects volatile calls in the slot.
	NoVolatile bool
	// Index makes the operator's index scope visible in the slot.
	Index bool
}

// SpecContext is what Specialize sees: argument types after lifting and
// the scopes introduced by the call.
type SpecContext struct {
	Args   []types.DType
	Scopes []*ir.Scope
}

// Sig is the outcome of specialization.
type Sig struct {
	// Ret is the result type.
	Ret types.DType
	// Want holds per-slot targets: the cast target for ordinary slots, the
	// required scope type for scope slots.
	Want []types.DType
	// Fail, when non-empty, explains why the argument types are unusable.
	Fail string
}

// BuildContext carries everything needed to build the node of a call.
type BuildContext struct {
	Ret    types.DType
	Args   []ir.Node
	Scopes []*ir.Scope
	Index  *ir.Scope
	Names  []string
}

// Op is an operator with its slot contract.
type Op struct {
	path     string
	minArity int
	maxArity int // -1 for unbounded
	purity   ir.Purity
	hasIndex bool

	slots     func(arity int) []Slot
	spec      func(SpecContext) Sig
	scopeType func(slot int, t types.DType) types.DType
	build     func(op *Op, bc BuildContext) ir.Node
}

// Path returns the fully qualified name.
func (o *Op) Path() string { return o.path }

func (o *Op) String() string { return o.path }

// Arity returns the accepted argument counts; max is -1 when unbounded.
func (o *Op) Arity() (min, max int) { return o.minArity, o.maxArity }

// AcceptsArity reports whether n arguments are allowed.
func (o *Op) AcceptsArity(n int) bool {
	return n >= o.minArity && (o.maxArity < 0 || n <= o.maxArity)
}

// ClampArity returns the nearest accepted arity to n.
func (o *Op) ClampArity(n int) int {
	if n < o.minArity {
		return o.minArity
	}
	if o.maxArity >= 0 && n > o.maxArity {
		return o.maxArity
	}
	return n
}

// Purity classifies the operator.
func (o *Op) Purity() ir.Purity { return o.purity }

// HasIndex reports whether the operator provides a loop index scope (#).
func (o *Op) HasIndex() bool { return o.hasIndex }

// Slots returns the slot contract for a call with the given arity.
func (o *Op) Slots(arity int) []Slot {
	if o.slots == nil {
		return plainSlots(arity, LiftNone)
	}
	return o.slots(arity)
}

// IsLoopSlot implements ir.Oper.
func (o *Op) IsLoopSlot(slot, arity int) bool {
	ss := o.Slots(arity)
	return slot >= 0 && slot < len(ss) && ss[slot].Loop
}

// LiftsFirstScope reports whether slot 0 both introduces a with or guard
// scope and lifts over sequences. Such calls are mapped over the outer
// sequence before the scope is bound.
func (o *Op) LiftsFirstScope(arity int) bool {
	ss := o.Slots(arity)
	if len(ss) == 0 {
		return false
	}
	s := ss[0]
	return s.Lifts.Has(LiftSeq) && (s.Scope == ir.ScopeWith || s.Scope == ir.ScopeGuard)
}

// ScopeType derives the type a scope slot binds from its (stripped)
// argument type.
func (o *Op) ScopeType(slot int, t types.DType) types.DType {
	if o.scopeType == nil {
		return t
	}
	return o.scopeType(slot, t)
}

// Specialize derives the result type and per-slot targets.
func (o *Op) Specialize(sc SpecContext) Sig {
	return o.spec(sc)
}

// Build produces the node for a fully bound call.
func (o *Op) Build(bc BuildContext) ir.Node {
	if o.build == nil {
		return ir.NewCall(o, bc.Ret, bc.Args, bc.Scopes, bc.Index, o.purity)
	}
	return o.build(o, bc)
}

func plainSlots(arity int, lifts Lifts) []Slot {
	ss := make([]Slot, arity)
	for i := range ss {
		ss[i] = Slot{Lifts: lifts, NestStart: i}
	}
	return ss
}
