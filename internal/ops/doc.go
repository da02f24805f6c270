// Package ops is the operator catalog.
//
// Every operator carries a slot contract (Slots) describing, per argument
// position, whether the slot introduces a scope, which wrappers
// (sequence, tensor, optional) the operator broadcasts over, which earlier
// scopes are visible, and whether the slot is evaluated per iteration.
// Specialize maps argument types to a result type and per-slot targets;
// Build produces the IR node of a fully bound call.
//
// Registry is the default name-resolution Host: exact lookup, deprecated
// aliases with replacements, namespaces for pipe calls, ambient globals and
// a case-folded edit-distance match used for "did you mean" suggestions.
package ops
