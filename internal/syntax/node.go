package syntax

import (
	"math/big"
	"strings"
	"sync/atomic"
)

// Range is a half-open byte range [Start, End) in the source text.
type Range struct {
	Start, End int
}

// Join returns the smallest range covering r and o.
func (r Range) Join(o Range) Range {
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

// Node is a parse-tree node. IDs are unique across every tree parsed by
// the process.
type Node interface {
	ID() int64
	Range() Range
	isNode()
}

var ids atomic.Int64

type node struct {
	id  int64
	rng Range
}

func newNode(r Range) node { return node{id: ids.Add(1), rng: r} }

func (n *node) ID() int64    { return n.id }
func (n *node) Range() Range { return n.rng }
func (*node) isNode()        {}

// IntLit is an integer literal of arbitrary size.
type IntLit struct {
	node
	Value *big.Int
}

// FloatLit is a floating point literal.
type FloatLit struct {
	node
	Value float64
}

// TextLit is a quoted text literal with escapes decoded.
type TextLit struct {
	node
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	node
	Value bool
}

// NullLit is null.
type NullLit struct {
	node
}

// Name is a possibly dotted identifier: x, it, Text, rec.A.B.
// Whether the leading parts name a scope, a global or a namespace is
// decided by the binder.
type Name struct {
	node
	Parts []string
}

// Path joins the parts with dots.
func (n *Name) Path() string { return strings.Join(n.Parts, ".") }

// IndexRef is # or #name, the loop index of an enclosing operator.
type IndexRef struct {
	node
	Name string
}

// Field reads a field of a non-name expression: (e).A.
type Field struct {
	node
	Record Node
	Name   string
}

// Index is tensor indexing t[i, j].
type Index struct {
	node
	Tensor  Node
	Indices []Node
}

// Directive marks an argument bound with [with] or [guard].
type Directive uint8

const (
	DirectiveNone Directive = iota
	DirectiveWith
	DirectiveGuard
)

func (d Directive) String() string {
	switch d {
	case DirectiveWith:
		return "with"
	case DirectiveGuard:
		return "guard"
	}
	return ""
}

// Arg is one call argument.
type Arg struct {
	// Name is the explicit `name:` prefix, empty when absent.
	Name      string
	NameRange Range
	Directive Directive
	Value     Node
}

// Call invokes an operator or user function. For pipe calls a->F(b) the
// receiver is Args[0] and Pipe is set.
type Call struct {
	node
	Path      string
	PathRange Range
	Args      []Arg
	Pipe      bool
}

// Unary is -x or not x.
type Unary struct {
	node
	Op  string
	Arg Node
}

// Binary is an infix operator other than a comparison.
type Binary struct {
	node
	Op          string
	Left, Right Node
}

// Compare is a comparison chain a < b <= c; len(Ops) == len(Args)-1.
type Compare struct {
	node
	Ops  []string
	Args []Node
}

// SequenceLit is [a, b, ...].
type SequenceLit struct {
	node
	Items []Node
}

// TupleLit is (a,) or (a, b, ...).
type TupleLit struct {
	node
	Items []Node
}

// FieldInit is one Name: value entry of a record literal.
type FieldInit struct {
	Name  string
	Value Node
}

// RecordLit is {A: a, B: b}.
type RecordLit struct {
	node
	Fields []FieldInit
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Field:
		return []Node{v.Record}
	case *Index:
		return append([]Node{v.Tensor}, v.Indices...)
	case *Call:
		out := make([]Node, len(v.Args))
		for i, a := range v.Args {
			out[i] = a.Value
		}
		return out
	case *Unary:
		return []Node{v.Arg}
	case *Binary:
		return []Node{v.Left, v.Right}
	case *Compare:
		return v.Args
	case *SequenceLit:
		return v.Items
	case *TupleLit:
		return v.Items
	case *RecordLit:
		out := make([]Node, len(v.Fields))
		for i, f := range v.Fields {
			out[i] = f.Value
		}
		return out
	}
	return nil
}

// Inspect calls f for n and, while f returns true, its descendants.
func Inspect(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
