package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Value is a sealed interface over constant payloads.
// Only Null, Bool, Int, Float and Text implement it.
type Value interface {
	value() // Sealed
}

// Null is the null value. Its meaning (empty sequence, absent optional)
// depends on the constant's type.
type Null struct{}

func (Null) value() {}

// Bool is a bit constant.
type Bool bool

func (Bool) value() {}

// Int is an integer constant of any width. The wrapped big.Int is never
// mutated after construction.
type Int struct {
	v *big.Int
}

func (Int) value() {}

// NewInt returns an Int holding n.
func NewInt(n int64) Int { return Int{v: big.NewInt(n)} }

// NewBigInt returns an Int holding a copy of n.
func NewBigInt(n *big.Int) Int { return Int{v: new(big.Int).Set(n)} }

// Big returns the value. Callers must not mutate the result.
func (i Int) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return i.v
}

// Int64 returns the value and whether it fits in an int64.
func (i Int) Int64() (int64, bool) {
	b := i.Big()
	return b.Int64(), b.IsInt64()
}

func (i Int) String() string { return i.Big().String() }

// Float is a floating point constant. r4 constants hold a float64 that is
// exactly representable as a float32.
type Float float64

func (Float) value() {}

// Text is a text constant.
type Text string

func (Text) value() {}

// SameValue reports whether a and b are the same constant. Floats compare by
// bit pattern, so +0 and -0 differ and NaN equals NaN.
func SameValue(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av.Big().Cmp(bv.Big()) == 0
	case Float:
		bv, ok := b.(Float)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	}
	return false
}

// FormatValue renders a constant payload the way dumps show it.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Int:
		return val.String()
	case Float:
		return formatFloat(float64(val))
	case Text:
		return quoteText(string(val))
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case f == 0 && math.Signbit(f):
		return "-0.0"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'n' || c == 'I' {
			return s
		}
	}
	return s + ".0"
}
