// Package catalog loads user-defined functions from CUE files.
//
// A catalog directory holds one CUE package with up to three sections:
//
//	functions: Clamp: {
//		params: [{name: "x", type: "i8"}, "lo", "hi"]
//		returns: "i8"
//		body: "If(x < lo, lo, If(x > hi, hi, x))"
//	}
//	deprecated: Length: "Text.Len"
//	global: rate: "r8"
//
// Load reads and validates the directory. The resulting *Catalog is a
// binder.FuncSource; Apply adds its globals and deprecations to an operator
// registry. AnalyzeCycles reports functions that can reach themselves
// through calls, which the binder would reject when expanded.
package catalog
