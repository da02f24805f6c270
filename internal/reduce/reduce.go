package reduce

import (
	"fmt"
	"log/slog"

	"github.com/roach88/quill/internal/ir"
)

// Code identifies a reducer warning.
type Code string

const (
	CodeOverflow      Code = "R001" // integer constant wrapped to its type's width
	CodePrecision     Code = "R002" // integer constant not exactly representable as a float
	CodeDivideByZero  Code = "R003" // constant divisor is zero
	CodeIndexOutRange Code = "R004" // constant tensor index out of range
)

// Warning reports a questionable constant computation. The reducer always
// substitutes a well-defined value for the computation it warns about.
type Warning struct {
	Code    Code
	Message string
	Node    ir.Node // the node that was replaced
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Host receives warnings raised while reducing.
type Host interface {
	Warn(Warning)
}

// HostFunc adapts a function to Host.
type HostFunc func(Warning)

// Warn calls f(w).
func (f HostFunc) Warn(w Warning) { f(w) }

// Collector is a Host that keeps every warning.
type Collector struct {
	Warnings []Warning
}

// Warn records w.
func (c *Collector) Warn(w Warning) { c.Warnings = append(c.Warnings, w) }

// Codes returns the codes of the collected warnings in order.
func (c *Collector) Codes() []Code {
	out := make([]Code, len(c.Warnings))
	for i, w := range c.Warnings {
		out[i] = w.Code
	}
	return out
}

type reducer struct {
	host Host
	memo map[ir.Node]ir.Node
}

// Reduce rewrites a bound tree into an equivalent tree of the same type that
// is no larger. host may be nil, in which case warnings are only logged.
func Reduce(root ir.Node, host Host) ir.Node {
	r := &reducer{host: host, memo: make(map[ir.Node]ir.Node)}
	out := r.reduce(root)
	if out.Type() != root.Type() {
		panic(fmt.Sprintf("reduce: type changed from %s to %s", root.Type(), out.Type()))
	}
	slog.Debug("reduced expression",
		"type", out.Type().String(),
		"before", ir.Size(root),
		"after", ir.Size(out))
	return out
}

func (r *reducer) warn(code Code, at ir.Node, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...), Node: at}
	slog.Debug("reduce warning", "code", string(code), "message", w.Message)
	if r.host != nil {
		r.host.Warn(w)
	}
}

// reduce reduces n bottom-up. Results are memoized per node.
func (r *reducer) reduce(n ir.Node) ir.Node {
	if out, ok := r.memo[n]; ok {
		return out
	}
	out := n
	if kids := n.Children(); len(kids) > 0 {
		nk := make([]ir.Node, len(kids))
		for i, c := range kids {
			nk[i] = r.reduce(c)
		}
		out = r.simplify(ir.Rebuild(n, nk))
	}
	r.memo[n] = out
	r.memo[out] = out
	return out
}

// simplify applies the local rules to n, whose children are already reduced.
// With wrappers are first pulled out of the operands that allow it.
func (r *reducer) simplify(n ir.Node) ir.Node {
	if c, ok := n.(*ir.Call); ok && isAlias(c) {
		return r.alias(c)
	}
	kids, bs := r.hoist(n)
	if len(bs) == 0 {
		return r.local(n)
	}
	inner := r.local(ir.Rebuild(n, kids))
	return r.alias(newWith(bs, inner))
}

func (r *reducer) local(n ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.Cast:
		return r.cast(v)
	case *ir.Unary:
		return r.unary(v)
	case *ir.Binary:
		return r.binary(v)
	case *ir.Variadic:
		return r.variadic(v)
	case *ir.Compare:
		return r.compare(v)
	case *ir.If:
		return r.cond(v)
	case *ir.Index:
		return r.index(v)
	case *ir.Call:
		if isAlias(v) {
			return r.alias(v)
		}
		return r.call(v)
	}
	return n
}
