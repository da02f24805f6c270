package ir

import "strings"

// NodeKind identifies the concrete type of a Node.
type NodeKind uint8

const (
	KindConstant NodeKind = iota
	KindDefault
	KindError
	KindMissing
	KindNamespace
	KindScopeRef
	KindGlobal
	KindGetField
	KindGetSlot
	KindIndex
	KindCast
	KindUnary
	KindBinary
	KindVariadic
	KindCompare
	KindIf
	KindSequenceLit
	KindTupleLit
	KindRecordLit
	KindTensorLit
	KindCall
	KindGroupBy
	KindSetFields

	numKinds
)

var nodeKindNames = [...]string{
	KindConstant:    "Constant",
	KindDefault:     "Default",
	KindError:       "Error",
	KindMissing:     "Missing",
	KindNamespace:   "Namespace",
	KindScopeRef:    "ScopeRef",
	KindGlobal:      "Global",
	KindGetField:    "GetField",
	KindGetSlot:     "GetSlot",
	KindIndex:       "Index",
	KindCast:        "Cast",
	KindUnary:       "Unary",
	KindBinary:      "Binary",
	KindVariadic:    "Variadic",
	KindCompare:     "Compare",
	KindIf:          "If",
	KindSequenceLit: "SequenceLit",
	KindTupleLit:    "TupleLit",
	KindRecordLit:   "RecordLit",
	KindTensorLit:   "TensorLit",
	KindCall:        "Call",
	KindGroupBy:     "GroupBy",
	KindSetFields:   "SetFields",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// KindMask summarizes the node kinds present in a subtree. The two top bits
// record call purity so that impurity queries are O(1) as well.
type KindMask uint64

const (
	MaskVolatile  KindMask = 1 << 62
	MaskProcedure KindMask = 1 << 63

	// MaskErrors covers every placeholder kind produced by failed binding.
	MaskErrors = KindMask(1<<KindError | 1<<KindMissing | 1<<KindNamespace)
)

// MaskOf returns the single-kind mask for k.
func MaskOf(k NodeKind) KindMask { return 1 << k }

// Has reports whether kind k occurs in the subtree.
func (m KindMask) Has(k NodeKind) bool { return m&MaskOf(k) != 0 }

// HasErrors reports whether the subtree contains an error placeholder.
func (m KindMask) HasErrors() bool { return m&MaskErrors != 0 }

// IsImpure reports whether the subtree contains a volatile or procedural call.
func (m KindMask) IsImpure() bool { return m&(MaskVolatile|MaskProcedure) != 0 }

func (m KindMask) String() string {
	var parts []string
	for k := NodeKind(0); k < numKinds; k++ {
		if m.Has(k) {
			parts = append(parts, k.String())
		}
	}
	if m&MaskVolatile != 0 {
		parts = append(parts, "volatile")
	}
	if m&MaskProcedure != 0 {
		parts = append(parts, "procedure")
	}
	return strings.Join(parts, "|")
}

// Purity classifies a call by its observable effects.
type Purity uint8

const (
	// Pure calls depend only on their arguments.
	Pure Purity = iota
	// Volatile calls may return different values for the same arguments.
	Volatile
	// Procedure calls have side effects.
	Procedure
)

func (p Purity) String() string {
	switch p {
	case Volatile:
		return "volatile"
	case Procedure:
		return "procedure"
	}
	return "pure"
}

func (p Purity) mask() KindMask {
	switch p {
	case Volatile:
		return MaskVolatile
	case Procedure:
		return MaskProcedure
	}
	return 0
}
