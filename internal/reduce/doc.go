// Package reduce simplifies bound expression trees.
//
// Reduce runs bottom-up over the tree and applies local rewrites: constant
// folding, flattening of associative chains, identity and sink elements,
// resolution of comparison links, merging of literal concatenations and
// scope simplification (With inlining, Guard elimination, hoisting of With
// bindings out of operands). Every rewrite keeps the node's type and never
// grows the tree.
//
// Integer arithmetic wraps at the type's width and float arithmetic follows
// IEEE-754. Float chains are only folded left to right, so the order of
// evaluation is the one the source wrote. Questionable folds (overflow,
// precision loss, division by zero, out-of-range tensor reads) are reported
// to the Host as Warnings; the reducer substitutes a defined value and
// continues.
package reduce
