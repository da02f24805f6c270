package types

import (
	"math/big"
	"slices"
	"strings"
	"sync"
)

// Kind identifies the shape of a DType.
type Kind uint8

const (
	KindNone Kind = iota
	KindGeneral
	KindVac
	KindBit
	KindI1
	KindI2
	KindI4
	KindI8
	KindIA
	KindU1
	KindU2
	KindU4
	KindU8
	KindR4
	KindR8
	KindText
	KindRecord
	KindTuple
	KindSequence
	KindTensor
)

var kindNames = [...]string{
	KindNone:     "<none>",
	KindGeneral:  "g",
	KindVac:      "v",
	KindBit:      "b",
	KindI1:       "i1",
	KindI2:       "i2",
	KindI4:       "i4",
	KindI8:       "i8",
	KindIA:       "ia",
	KindU1:       "u1",
	KindU2:       "u2",
	KindU4:       "u4",
	KindU8:       "u8",
	KindR4:       "r4",
	KindR8:       "r8",
	KindText:     "s",
	KindRecord:   "record",
	KindTuple:    "tuple",
	KindSequence: "sequence",
	KindTensor:   "tensor",
}

func (k Kind) String() string { return kindNames[k] }

// Field is a named record field or an unnamed tuple slot.
type Field struct {
	Name string
	Type DType
}

// DType is an interned type descriptor. The zero value is invalid.
type DType struct {
	d *desc
}

type desc struct {
	kind   Kind
	opt    bool
	item   DType   // sequence and tensor item type
	rank   int     // tensor rank
	fields []Field // record fields sorted by name, or tuple slots in order
	key    string
}

// interned maps the canonical rendering of a type to its descriptor.
var interned sync.Map

func intern(d desc) DType {
	d.key = render(&d)
	if v, ok := interned.Load(d.key); ok {
		return DType{d: v.(*desc)}
	}
	v, _ := interned.LoadOrStore(d.key, &d)
	return DType{d: v.(*desc)}
}

// Primitive types.
var (
	General = intern(desc{kind: KindGeneral})
	Vac     = intern(desc{kind: KindVac})
	Bit     = intern(desc{kind: KindBit})
	I1      = intern(desc{kind: KindI1})
	I2      = intern(desc{kind: KindI2})
	I4      = intern(desc{kind: KindI4})
	I8      = intern(desc{kind: KindI8})
	IA      = intern(desc{kind: KindIA})
	U1      = intern(desc{kind: KindU1})
	U2      = intern(desc{kind: KindU2})
	U4      = intern(desc{kind: KindU4})
	U8      = intern(desc{kind: KindU8})
	R4      = intern(desc{kind: KindR4})
	R8      = intern(desc{kind: KindR8})
	Text    = intern(desc{kind: KindText})
)

// Sequence returns the type of sequences of item.
func Sequence(item DType) DType {
	return intern(desc{kind: KindSequence, item: item})
}

// Tensor returns the type of tensors of item with the given rank.
func Tensor(item DType, rank int) DType {
	if rank < 0 {
		rank = 0
	}
	return intern(desc{kind: KindTensor, item: item, rank: rank})
}

// Record returns a record type. Fields are sorted by name; when a name
// repeats, the last occurrence wins.
func Record(fields ...Field) DType {
	byName := make(map[string]DType, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Type
	}
	out := make([]Field, 0, len(byName))
	for name, t := range byName {
		out = append(out, Field{Name: name, Type: t})
	}
	slices.SortFunc(out, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return intern(desc{kind: KindRecord, fields: out})
}

// Tuple returns a tuple type with the given slot types.
func Tuple(slots ...DType) DType {
	out := make([]Field, len(slots))
	for i, t := range slots {
		out[i] = Field{Type: t}
	}
	return intern(desc{kind: KindTuple, fields: out})
}

// IsValid reports whether t is a real type (not the zero value).
func (t DType) IsValid() bool { return t.d != nil }

// Kind returns the kind of t.
func (t DType) Kind() Kind {
	if t.d == nil {
		return KindNone
	}
	return t.d.kind
}

func (t DType) String() string {
	if t.d == nil {
		return "<none>"
	}
	return t.d.key
}

// IsOpt reports whether t carries the optional marker.
func (t DType) IsOpt() bool { return t.d != nil && t.d.opt }

// HasOptForm reports whether t's kind can carry the optional marker.
func (t DType) HasOptForm() bool {
	switch t.Kind() {
	case KindNone, KindGeneral, KindVac, KindSequence:
		return false
	}
	return true
}

// ToOpt returns the optional form of t, or t itself for inherently
// nullable kinds.
func (t DType) ToOpt() DType {
	if t.IsOpt() || !t.HasOptForm() {
		return t
	}
	d := *t.d
	d.opt = true
	return intern(d)
}

// ToReq strips the optional marker.
func (t DType) ToReq() DType {
	if !t.IsOpt() {
		return t
	}
	d := *t.d
	d.opt = false
	return intern(d)
}

// CanBeNull reports whether a value of type t may be null.
func (t DType) CanBeNull() bool {
	switch t.Kind() {
	case KindGeneral, KindVac:
		return true
	}
	return t.IsOpt()
}

// IsSequence reports whether t is a sequence type.
func (t DType) IsSequence() bool { return t.Kind() == KindSequence }

// IsTensor reports whether t is a tensor type (optional or not).
func (t DType) IsTensor() bool { return t.Kind() == KindTensor }

// IsRecord reports whether t is a record type (optional or not).
func (t DType) IsRecord() bool { return t.Kind() == KindRecord }

// IsTuple reports whether t is a tuple type (optional or not).
func (t DType) IsTuple() bool { return t.Kind() == KindTuple }

// ItemType returns the item type of a sequence or tensor.
func (t DType) ItemType() DType {
	if t.d == nil {
		return DType{}
	}
	return t.d.item
}

// SeqCount returns the number of nested sequence levels of t.
func (t DType) SeqCount() int {
	n := 0
	for t.IsSequence() {
		n++
		t = t.d.item
	}
	return n
}

// ToSequence wraps t in one sequence level.
func (t DType) ToSequence() DType { return Sequence(t) }

// TensorRank returns the rank of a tensor type, zero otherwise.
func (t DType) TensorRank() int {
	if !t.IsTensor() {
		return 0
	}
	return t.d.rank
}

// Fields returns the fields of a record type.
func (t DType) Fields() []Field {
	if !t.IsRecord() {
		return nil
	}
	return t.d.fields
}

// Field looks up a record field type by name.
func (t DType) Field(name string) (DType, bool) {
	for _, f := range t.Fields() {
		if f.Name == name {
			return f.Type, true
		}
	}
	return DType{}, false
}

// Slots returns the slot types of a tuple type.
func (t DType) Slots() []DType {
	if !t.IsTuple() {
		return nil
	}
	out := make([]DType, len(t.d.fields))
	for i, f := range t.d.fields {
		out[i] = f.Type
	}
	return out
}

// IsNumeric reports whether t is a required or optional numeric type.
func (t DType) IsNumeric() bool {
	k := t.Kind()
	return k >= KindI1 && k <= KindR8
}

// IsInteger reports whether t is an integer type.
func (t DType) IsInteger() bool {
	k := t.Kind()
	return k >= KindI1 && k <= KindU8
}

// IsFloat reports whether t is r4 or r8.
func (t DType) IsFloat() bool {
	k := t.Kind()
	return k == KindR4 || k == KindR8
}

// IsSigned reports whether t is a signed integer type (including ia).
func (t DType) IsSigned() bool {
	k := t.Kind()
	return k >= KindI1 && k <= KindIA
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t DType) IsUnsigned() bool {
	k := t.Kind()
	return k >= KindU1 && k <= KindU8
}

// BitWidth returns the width of a fixed-size integer type; zero for ia and
// non-integer types.
func (t DType) BitWidth() int {
	switch t.Kind() {
	case KindI1, KindU1:
		return 8
	case KindI2, KindU2:
		return 16
	case KindI4, KindU4:
		return 32
	case KindI8, KindU8:
		return 64
	}
	return 0
}

// IntLiteralType returns the narrowest of i4, i8, u8 and ia holding v.
func IntLiteralType(v *big.Int) DType {
	switch {
	case Fits(I4, v):
		return I4
	case Fits(I8, v):
		return I8
	case Fits(U8, v):
		return U8
	}
	return IA
}

// Fits reports whether v is representable in the integer type t.
func Fits(t DType, v *big.Int) bool {
	w := t.BitWidth()
	if t.Kind() == KindIA {
		return true
	}
	if w == 0 {
		return false
	}
	if t.IsUnsigned() {
		return v.Sign() >= 0 && v.BitLen() <= w
	}
	lim := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
	if v.Sign() >= 0 {
		return v.Cmp(lim) < 0
	}
	return new(big.Int).Neg(v).Cmp(lim) <= 0
}

func render(d *desc) string {
	var sb strings.Builder
	switch d.kind {
	case KindRecord:
		sb.WriteByte('{')
		for i, f := range d.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			sb.WriteString(f.Type.String())
		}
		sb.WriteByte('}')
	case KindTuple:
		sb.WriteByte('(')
		for i, f := range d.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Type.String())
		}
		if len(d.fields) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case KindSequence:
		sb.WriteString(d.item.String())
		sb.WriteByte('*')
	case KindTensor:
		sb.WriteString(d.item.String())
		sb.WriteByte('[')
		for i := 0; i < d.rank; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('*')
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(d.kind.String())
	}
	if d.opt {
		sb.WriteByte('?')
	}
	return sb.String()
}
