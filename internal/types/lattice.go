package types

// signedRank orders the signed integer kinds.
var signedRank = map[Kind]int{KindI1: 1, KindI2: 2, KindI4: 3, KindI8: 4, KindIA: 5}

var signedByRank = [...]DType{1: I1, 2: I2, 3: I4, 4: I8, 5: IA}

// unsignedRank orders the unsigned integer kinds.
var unsignedRank = map[Kind]int{KindU1: 1, KindU2: 2, KindU4: 3, KindU8: 4}

var unsignedByRank = [...]DType{1: U1, 2: U2, 3: U4, 4: U8}

// Sup returns the least upper bound of a and b on the widening lattice.
// Incompatible types join to General.
func Sup(a, b DType) DType {
	switch {
	case a == b:
		return a
	case !a.IsValid():
		return b
	case !b.IsValid():
		return a
	case a.Kind() == KindGeneral || b.Kind() == KindGeneral:
		return General
	case a.Kind() == KindVac:
		return b.ToOpt()
	case b.Kind() == KindVac:
		return a.ToOpt()
	}

	if a.IsOpt() || b.IsOpt() {
		r := Sup(a.ToReq(), b.ToReq())
		if r.Kind() == KindGeneral {
			return r
		}
		return r.ToOpt()
	}

	switch {
	case a.IsNumeric() && b.IsNumeric():
		return numericSup(a, b)
	case a.IsSequence() && b.IsSequence():
		return Sequence(Sup(a.ItemType(), b.ItemType()))
	case a.IsTensor() && b.IsTensor() && a.TensorRank() == b.TensorRank():
		return Tensor(Sup(a.ItemType(), b.ItemType()), a.TensorRank())
	case a.IsRecord() && b.IsRecord():
		fa, fb := a.Fields(), b.Fields()
		if len(fa) != len(fb) {
			return General
		}
		out := make([]Field, len(fa))
		for i := range fa {
			if fa[i].Name != fb[i].Name {
				return General
			}
			out[i] = Field{Name: fa[i].Name, Type: Sup(fa[i].Type, fb[i].Type)}
		}
		return Record(out...)
	case a.IsTuple() && b.IsTuple():
		sa, sb := a.Slots(), b.Slots()
		if len(sa) != len(sb) {
			return General
		}
		out := make([]DType, len(sa))
		for i := range sa {
			out[i] = Sup(sa[i], sb[i])
		}
		return Tuple(out...)
	}
	return General
}

func numericSup(a, b DType) DType {
	if a.IsFloat() || b.IsFloat() {
		if isR4Compatible(a) && isR4Compatible(b) {
			return R4
		}
		return R8
	}
	ra, aSigned := signedRank[a.Kind()]
	rb, bSigned := signedRank[b.Kind()]
	switch {
	case aSigned && bSigned:
		return signedByRank[max(ra, rb)]
	case !aSigned && !bSigned:
		return unsignedByRank[max(unsignedRank[a.Kind()], unsignedRank[b.Kind()])]
	case aSigned:
		return signedByRank[max(ra, signedAbove(b))]
	default:
		return signedByRank[max(rb, signedAbove(a))]
	}
}

// signedAbove returns the rank of the narrowest signed type holding every
// value of the unsigned type u.
func signedAbove(u DType) int {
	return unsignedRank[u.Kind()] + 1
}

func isR4Compatible(t DType) bool {
	switch t.Kind() {
	case KindR4, KindI1, KindI2, KindU1, KindU2:
		return true
	}
	return false
}

// Accepts reports whether a value of type src converts implicitly to dst.
func Accepts(dst, src DType) bool {
	switch {
	case dst == src:
		return true
	case !dst.IsValid() || !src.IsValid():
		return false
	case dst.Kind() == KindGeneral:
		return true
	case src.Kind() == KindVac:
		return dst.CanBeNull() || dst.IsSequence()
	case dst.IsOpt():
		return Accepts(dst.ToReq(), src.ToReq())
	case src.IsOpt():
		return false
	case dst.IsNumeric() && src.IsNumeric():
		return numericSup(dst, src) == dst
	case dst.IsSequence() && src.IsSequence():
		return Accepts(dst.ItemType(), src.ItemType())
	case dst.IsTensor() && src.IsTensor():
		return dst.TensorRank() == src.TensorRank() && Accepts(dst.ItemType(), src.ItemType())
	case dst.IsRecord() && src.IsRecord():
		fd, fs := dst.Fields(), src.Fields()
		if len(fd) != len(fs) {
			return false
		}
		for i := range fd {
			if fd[i].Name != fs[i].Name || !Accepts(fd[i].Type, fs[i].Type) {
				return false
			}
		}
		return true
	case dst.IsTuple() && src.IsTuple():
		sd, ss := dst.Slots(), src.Slots()
		if len(sd) != len(ss) {
			return false
		}
		for i := range sd {
			if !Accepts(sd[i], ss[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ArithType returns the type arithmetic on values of type t is performed in:
// fixed signed integers widen to i8, unsigned to u8, floats to r8.
// The optional marker is preserved.
func ArithType(t DType) DType {
	var r DType
	switch {
	case t.IsSigned() && t.Kind() != KindIA:
		r = I8
	case t.Kind() == KindIA:
		r = IA
	case t.IsUnsigned():
		r = U8
	case t.IsFloat():
		r = R8
	default:
		return t
	}
	if t.IsOpt() {
		return r.ToOpt()
	}
	return r
}
