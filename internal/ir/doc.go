// Package ir provides the bound expression IR shared by the binder and the
// reducer.
//
// This package imports only internal/types. Operators are referenced through
// the small Oper interface so that the operator catalog can live in its own
// package (internal/ops) without an import cycle.
//
// Key design constraints:
//   - Nodes are immutable once built; every node is produced by a factory in
//     factory.go, which validates invariants and may fold immediately.
//   - Nodes form trees. Constants and scope references are the only nodes that
//     may have more than one parent.
//   - Every node carries its type, a process-wide ordinal and a mask of the
//     node kinds present in its subtree. The mask is computed once.
//   - Scopes are compared by identity only. Each scope owns exactly one
//     ScopeRef leaf.
//   - Structural comparison (Equivalent) ignores ordinals and works modulo a
//     scope substitution map and a global-name substitution table.
package ir
