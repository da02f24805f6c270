package ir

import (
	"github.com/roach88/quill/internal/types"
)

// Node is a sealed interface over bound IR nodes.
// Only the node types in this file implement it.
type Node interface {
	// Kind returns the node kind tag.
	Kind() NodeKind
	// Type returns the node's type.
	Type() types.DType
	// Ordinal returns the construction ordinal (identity only).
	Ordinal() int64
	// Mask returns the kinds present anywhere in the subtree.
	Mask() KindMask
	// Children returns the direct operands in evaluation order.
	Children() []Node

	isNode() // Sealed
}

// Oper is the operator carried by a Call node. The catalog of operators
// lives in internal/ops.
type Oper interface {
	// Path is the fully qualified operator name, e.g. "Text.Len".
	Path() string
	// IsLoopSlot reports whether the argument at slot is evaluated once per
	// iteration for a call with the given arity.
	IsLoopSlot(slot, arity int) bool
}

type base struct {
	typ  types.DType
	ord  int64
	mask KindMask
}

func (b *base) Type() types.DType { return b.typ }
func (b *base) Ordinal() int64    { return b.ord }
func (b *base) Mask() KindMask    { return b.mask }
func (b *base) isNode()           {}

func newBase(k NodeKind, t types.DType, kids ...Node) base {
	m := MaskOf(k)
	for _, c := range kids {
		m |= c.Mask()
	}
	return base{typ: t, ord: nextOrdinal(), mask: m}
}

// Constant is a literal value.
type Constant struct {
	base
	Value Value
}

func (*Constant) Kind() NodeKind   { return KindConstant }
func (*Constant) Children() []Node { return nil }

// IsNull reports whether the constant is null.
func (c *Constant) IsNull() bool {
	_, ok := c.Value.(Null)
	return ok
}

// Default is the default value of an aggregate type (record, tuple or
// tensor). Scalar defaults are plain constants.
type Default struct {
	base
}

func (*Default) Kind() NodeKind   { return KindDefault }
func (*Default) Children() []Node { return nil }

// Error is the placeholder left where binding failed.
type Error struct {
	base
	Message string
}

func (*Error) Kind() NodeKind   { return KindError }
func (*Error) Children() []Node { return nil }

// Missing stands in for an argument the call did not supply.
type Missing struct {
	base
}

func (*Missing) Kind() NodeKind   { return KindMissing }
func (*Missing) Children() []Node { return nil }

// Namespace is a namespace name used where a value was expected.
type Namespace struct {
	base
	Path string
}

func (*Namespace) Kind() NodeKind   { return KindNamespace }
func (*Namespace) Children() []Node { return nil }

// ScopeRef is the unique reference leaf of a scope. Obtain it with
// Scope.Ref; there is no other constructor.
type ScopeRef struct {
	base
	Scope *Scope
}

func (*ScopeRef) Kind() NodeKind   { return KindScopeRef }
func (*ScopeRef) Children() []Node { return nil }

// Global references a host-provided global by name.
type Global struct {
	base
	Name string
}

func (*Global) Kind() NodeKind   { return KindGlobal }
func (*Global) Children() []Node { return nil }

// GetField reads a record field.
type GetField struct {
	base
	Record Node
	Name   string
}

func (*GetField) Kind() NodeKind     { return KindGetField }
func (n *GetField) Children() []Node { return []Node{n.Record} }

// GetSlot reads a tuple slot.
type GetSlot struct {
	base
	Tuple Node
	Slot  int
}

func (*GetSlot) Kind() NodeKind     { return KindGetSlot }
func (n *GetSlot) Children() []Node { return []Node{n.Tuple} }

// Index reads a tensor element. Indices are i8.
type Index struct {
	base
	Tensor  Node
	Indices []Node
}

func (*Index) Kind() NodeKind { return KindIndex }
func (n *Index) Children() []Node {
	return append([]Node{n.Tensor}, n.Indices...)
}

// Cast converts Arg to the node's type.
type Cast struct {
	base
	Arg Node
}

func (*Cast) Kind() NodeKind     { return KindCast }
func (n *Cast) Children() []Node { return []Node{n.Arg} }

// UnaryOp is the operator of a Unary node.
type UnaryOp uint8

const (
	UnaryNot UnaryOp = iota
	UnaryNegate
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "Not"
	}
	return "Neg"
}

// Unary applies a unary operator.
type Unary struct {
	base
	Op  UnaryOp
	Arg Node
}

func (*Unary) Kind() NodeKind     { return KindUnary }
func (n *Unary) Children() []Node { return []Node{n.Arg} }

// BinaryOp is the operator of a Binary node.
type BinaryOp uint8

const (
	BinaryIntDiv BinaryOp = iota
	BinaryMod
	BinaryShl
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryIntDiv:
		return "IntDiv"
	case BinaryMod:
		return "Mod"
	}
	return "Shl"
}

// Binary applies a non-associative binary operator.
type Binary struct {
	base
	Op    BinaryOp
	Left  Node
	Right Node
}

func (*Binary) Kind() NodeKind     { return KindBinary }
func (n *Binary) Children() []Node { return []Node{n.Left, n.Right} }

// VarOp is the operator of a Variadic node.
type VarOp uint8

const (
	VarAdd VarOp = iota
	VarMul
	VarAnd
	VarOr
	VarXor
	VarConcat
)

func (op VarOp) String() string {
	switch op {
	case VarAdd:
		return "Add"
	case VarMul:
		return "Mul"
	case VarAnd:
		return "And"
	case VarOr:
		return "Or"
	case VarXor:
		return "Xor"
	}
	return "Concat"
}

// Invertible reports whether operands may carry the inverted bit
// (subtraction for Add, division for Mul).
func (op VarOp) Invertible() bool { return op == VarAdd || op == VarMul }

// Variadic applies an associative operator to two or more operands.
// Inverted[i] marks operand i as subtracted (Add) or divided by (Mul).
type Variadic struct {
	base
	Op       VarOp
	Args     []Node
	Inverted []bool
}

func (*Variadic) Kind() NodeKind     { return KindVariadic }
func (n *Variadic) Children() []Node { return n.Args }

// CmpOp is one comparison operator in a chain.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpSymbols = [...]string{CmpEq: "=", CmpNe: "!=", CmpLt: "<", CmpLe: "<=", CmpGt: ">", CmpGe: ">="}

func (op CmpOp) String() string { return cmpOpSymbols[op] }

// NullTo describes how one operand of a comparison link resolves the link
// when that operand is null.
type NullTo uint8

const (
	// NullNever means the operand is known not to be null in this link.
	NullNever NullTo = iota
	// NullToFalse means a null operand makes the link false.
	NullToFalse
	// NullToTrue means a null operand makes the link true.
	NullToTrue
	// NullToOtherNull means the link holds exactly when the other side is null too.
	NullToOtherNull
	// NullToOtherNotNull means the link holds exactly when the other side is not null.
	NullToOtherNotNull
)

// Link is one adjacent pair of a comparison chain.
type Link struct {
	Op        CmpOp
	LeftNull  NullTo
	RightNull NullTo
}

// Compare is a comparison chain a op1 b op2 c ... with conjunction
// semantics. Null orders below every other value.
type Compare struct {
	base
	Args  []Node
	Links []Link
}

func (*Compare) Kind() NodeKind     { return KindCompare }
func (n *Compare) Children() []Node { return n.Args }

// Ops returns the operators of the chain.
func (n *Compare) Ops() []CmpOp {
	out := make([]CmpOp, len(n.Links))
	for i, l := range n.Links {
		out[i] = l.Op
	}
	return out
}

// If is a conditional.
type If struct {
	base
	Cond Node
	Then Node
	Else Node
}

func (*If) Kind() NodeKind     { return KindIf }
func (n *If) Children() []Node { return []Node{n.Cond, n.Then, n.Else} }

// SequenceLit is a sequence literal.
type SequenceLit struct {
	base
	Items []Node
}

func (*SequenceLit) Kind() NodeKind     { return KindSequenceLit }
func (n *SequenceLit) Children() []Node { return n.Items }

// TupleLit is a tuple literal.
type TupleLit struct {
	base
	Items []Node
}

func (*TupleLit) Kind() NodeKind     { return KindTupleLit }
func (n *TupleLit) Children() []Node { return n.Items }

// RecordLit is a record literal. Names are sorted and unique.
type RecordLit struct {
	base
	Names  []string
	Values []Node
}

func (*RecordLit) Kind() NodeKind     { return KindRecordLit }
func (n *RecordLit) Children() []Node { return n.Values }

// Lookup returns the value of the named field.
func (n *RecordLit) Lookup(name string) (Node, bool) {
	for i, nm := range n.Names {
		if nm == name {
			return n.Values[i], true
		}
	}
	return nil, false
}

// TensorLit is a tensor literal with items in row-major order.
type TensorLit struct {
	base
	Shape []int
	Items []Node
}

func (*TensorLit) Kind() NodeKind     { return KindTensorLit }
func (n *TensorLit) Children() []Node { return n.Items }

// Call invokes an operator. Scopes[i] is the scope introduced by slot i, or
// nil. Index is the loop index scope, nil when nothing references it.
type Call struct {
	base
	Op     Oper
	Args   []Node
	Scopes []*Scope
	Index  *Scope
	Purity Purity
}

func (*Call) Kind() NodeKind     { return KindCall }
func (n *Call) Children() []Node { return n.Args }

// GroupBy partitions Source into runs of items with equal Key.
// Scope is the item scope visible in Key.
type GroupBy struct {
	base
	Source Node
	Scope  *Scope
	Key    Node
}

func (*GroupBy) Kind() NodeKind     { return KindGroupBy }
func (n *GroupBy) Children() []Node { return []Node{n.Source, n.Key} }

// SetFields replaces or adds record fields. Scope binds the input record and
// is visible in Values.
type SetFields struct {
	base
	Record Node
	Scope  *Scope
	Names  []string
	Values []Node
}

func (*SetFields) Kind() NodeKind { return KindSetFields }
func (n *SetFields) Children() []Node {
	return append([]Node{n.Record}, n.Values...)
}

// OwnedScopes returns the scopes introduced by n itself.
func OwnedScopes(n Node) []*Scope {
	switch v := n.(type) {
	case *Call:
		var out []*Scope
		for _, s := range v.Scopes {
			if s != nil {
				out = append(out, s)
			}
		}
		if v.Index != nil {
			out = append(out, v.Index)
		}
		return out
	case *GroupBy:
		return []*Scope{v.Scope}
	case *SetFields:
		return []*Scope{v.Scope}
	}
	return nil
}

// Size counts the nodes in the tree rooted at n.
func Size(n Node) int {
	total := 1
	for _, c := range n.Children() {
		total += Size(c)
	}
	return total
}
