// Package types provides the type-value algebra for quill.
//
// A DType is an interned, value-comparable descriptor: two DTypes are equal
// with == exactly when they describe the same type. The package imports
// nothing internal; ir, ops and binder all build on it.
//
// Type syntax (used by String and Parse):
//
//	g            general (any value)
//	v            vacuous, the type of the null literal
//	b            bit
//	i1 i2 i4 i8  signed integers
//	ia           arbitrary precision integer
//	u1 u2 u4 u8  unsigned integers
//	r4 r8        floating point
//	s            text
//	{A:i8, B:s}  record
//	(i8, s)      tuple
//	T*           sequence of T
//	T[*,*]       tensor of T with rank 2
//	T?           optional T
//
// Sequences, g and v are inherently nullable and never carry the ? suffix.
package types
