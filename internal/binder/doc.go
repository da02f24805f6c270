// Package binder turns parsed expressions into the bound IR.
//
// Bind resolves every name and operator, derives types, introduces scopes
// and broadcasts operators over sequences, tensors and optionals by
// wrapping calls in Map, Tensor.ForEach and Guard. Binding never fails:
// problems become Diagnostics and the tree gets a typed placeholder
// (ir.Error, ir.Missing or a default value) in their place.
//
// # Invocation
//
// A call binds in three phases. The core pass binds each argument with the
// scopes its slot may see and derives the scopes the call introduces,
// stripping the wrappers a scope slot lifts over. The lift pass wraps the
// call once per wrapper category, sequences first, then optionals, then
// tensors, and recurses. Specialization asks the operator for result and
// argument types and inserts casts.
//
// When an accumulator scope (Fold) turns out too narrow for its body, the
// call is rebound from a checkpoint with the wider type, at most
// MaxPromotionRetries times. The binding state is persistent, so a rewind is
// an assignment.
//
// # User functions
//
// Calls to functions from a FuncSource are inlined as With calls binding
// each parameter. Bodies see only their parameters: ambient globals are
// hidden. A function reached again while its own body is being bound is
// reported as recursion instead of being expanded.
package binder
