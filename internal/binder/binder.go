package binder

import (
	"fmt"
	"log/slog"

	"github.com/benbjohnson/immutable"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

// MaxPromotionRetries bounds how often one call is rebound with promoted
// accumulator types before giving up with CodePromotionFailed.
const MaxPromotionRetries = 3

// Result is the outcome of binding one expression. Root is always a
// complete, typed tree; errors leave placeholder nodes in it.
type Result struct {
	Root        ir.Node
	Diagnostics []Diagnostic
	Promotions  int
	SessionID   string
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics.
func (r *Result) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// state is the checkpointed part of a binding run. Rewinding a call for a
// retry restores an earlier state value.
type state struct {
	// promotions maps promotionKey(call, slot) to the promoted scope type.
	promotions *immutable.Map[int64, types.DType]
	diags      *immutable.List[Diagnostic]
}

func promotionKey(call int64, slot int) int64 { return call*16 + int64(slot) }

type binder struct {
	cfg  config
	host ops.Host
	st   state

	// expanding holds expansionKey(path, arity) of user functions whose
	// bodies are being bound.
	expanding *immutable.Map[string, struct{}]
	inFunc    bool

	promoted int
}

// Bind binds expr into the IR. Binding never fails: problems are reported as
// diagnostics and leave placeholder nodes.
func Bind(expr syntax.Node, opts ...Option) *Result {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &binder{
		cfg:  cfg,
		host: cfg.host,
		st: state{
			promotions: immutable.NewMap[int64, types.DType](nil),
			diags:      immutable.NewList[Diagnostic](),
		},
		expanding: immutable.NewMap[string, struct{}](nil),
	}
	root := b.bind(expr, nil)

	res := &Result{
		Root:        root,
		Diagnostics: b.diagnostics(),
		Promotions:  b.promoted,
		SessionID:   cfg.ids.Generate(),
	}
	slog.Debug("bound expression",
		"session", res.SessionID,
		"type", root.Type().String(),
		"diagnostics", len(res.Diagnostics),
		"promotions", res.Promotions)
	return res
}

func (b *binder) diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, b.st.diags.Len())
	itr := b.st.diags.Iterator()
	for !itr.Done() {
		_, d := itr.Next()
		out = append(out, d)
	}
	return out
}

func (b *binder) report(code Code, rng syntax.Range, suggestion, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	b.st.diags = b.st.diags.Append(Diagnostic{
		Code:       code,
		Severity:   severityOf(code),
		Message:    msg,
		Range:      rng,
		Suggestion: suggestion,
	})
	return msg
}

// bind binds one expression with the given scopes visible.
func (b *binder) bind(n syntax.Node, stack *ir.ScopeStack) ir.Node {
	switch v := n.(type) {
	case *syntax.IntLit:
		return ir.NewBig(v.Value, types.IntLiteralType(v.Value))
	case *syntax.FloatLit:
		return ir.NewFloat(v.Value, types.R8)
	case *syntax.TextLit:
		return ir.NewText(v.Value)
	case *syntax.BoolLit:
		return ir.NewBit(v.Value)
	case *syntax.NullLit:
		return ir.NewNull(types.Vac)
	case *syntax.Name:
		return b.bindName(v, stack)
	case *syntax.IndexRef:
		return b.bindIndexRef(v, stack)
	case *syntax.Field:
		return b.field(b.bind(v.Record, stack), v.Name, v.Range())
	case *syntax.Index:
		return b.bindIndex(v, stack)
	case *syntax.Call:
		return b.bindCall(v, stack)
	case *syntax.Unary:
		op := ops.Negate
		if v.Op == "not" {
			op = ops.Not
		}
		return b.invokeNodes(v, op, b.bind(v.Arg, stack))
	case *syntax.Binary:
		op, ok := ops.SyntaxOps[v.Op]
		if !ok {
			msg := b.report(CodeUnknownOperator, v.Range(), "", "unknown operator %q", v.Op)
			return ir.NewError(types.General, msg)
		}
		return b.invokeNodes(v, op, b.bind(v.Left, stack), b.bind(v.Right, stack))
	case *syntax.Compare:
		return b.bindCompare(v, stack)
	case *syntax.SequenceLit:
		return b.bindSequence(v, stack)
	case *syntax.TupleLit:
		items := make([]ir.Node, len(v.Items))
		for i, it := range v.Items {
			items[i] = b.bind(it, stack)
		}
		return ir.NewTuple(items...)
	case *syntax.RecordLit:
		names := make([]string, len(v.Fields))
		values := make([]ir.Node, len(v.Fields))
		for i, f := range v.Fields {
			names[i] = f.Name
			values[i] = b.bind(f.Value, stack)
		}
		return ir.NewRecord(names, values)
	}
	panic(fmt.Sprintf("binder: unexpected syntax node %T", n))
}

var cmpOps = map[string]ir.CmpOp{
	"=":  ir.CmpEq,
	"!=": ir.CmpNe,
	"<":  ir.CmpLt,
	"<=": ir.CmpLe,
	">":  ir.CmpGt,
	">=": ir.CmpGe,
}

func (b *binder) bindCompare(v *syntax.Compare, stack *ir.ScopeStack) ir.Node {
	links := make([]ir.CmpOp, len(v.Ops))
	for i, s := range v.Ops {
		links[i] = cmpOps[s]
	}
	args := make([]ir.Node, len(v.Args))
	for i, a := range v.Args {
		args[i] = b.bind(a, stack)
	}
	return b.invokeNodes(v, ops.NewCompareOp(links), args...)
}

func (b *binder) bindSequence(v *syntax.SequenceLit, stack *ir.ScopeStack) ir.Node {
	items := make([]ir.Node, len(v.Items))
	var item types.DType
	for i, it := range v.Items {
		items[i] = b.bind(it, stack)
		item = types.Sup(item, items[i].Type())
	}
	if !item.IsValid() {
		item = types.Vac
	}
	for i, it := range items {
		items[i] = b.coerce(it, item, v.Items[i].Range())
	}
	return ir.NewSequence(types.Sequence(item), items...)
}

// bindName resolves a possibly dotted name: the longest prefix naming a
// scope or global, followed by field reads.
func (b *binder) bindName(v *syntax.Name, stack *ir.ScopeStack) ir.Node {
	for i := len(v.Parts); i > 0; i-- {
		head, ok := b.lookupValue(v.Parts[:i], stack)
		if !ok {
			continue
		}
		for _, f := range v.Parts[i:] {
			head = b.field(head, f, v.Range())
		}
		return head
	}
	path := v.Path()
	if b.host.IsNamespace(path) {
		b.report(CodeUnknownName, v.Range(), "", "%s is a namespace, not a value", path)
		return ir.NewNamespace(path)
	}
	msg := b.report(CodeUnknownName, v.Range(), "", "unknown name %q", path)
	return ir.NewError(types.General, msg)
}

func (b *binder) lookupValue(parts []string, stack *ir.ScopeStack) (ir.Node, bool) {
	if len(parts) == 1 {
		if s, ok := stack.Lookup(parts[0]); ok {
			return s.Ref(), true
		}
		if parts[0] == "it" {
			if s, ok := stack.Find(func(s *ir.Scope) bool { return s.Kind() != ir.ScopeSequenceIndex }); ok {
				return s.Ref(), true
			}
		}
	}
	name := syntaxPath(parts)
	if t, ok := b.host.LookupGlobal(name); ok {
		return ir.NewGlobal(name, t), true
	}
	return nil, false
}

func (b *binder) bindIndexRef(v *syntax.IndexRef, stack *ir.ScopeStack) ir.Node {
	if s, ok := stack.Lookup("#" + v.Name); ok {
		return s.Ref()
	}
	what := "#"
	if v.Name != "" {
		what += v.Name
	}
	msg := b.report(CodeUnknownName, v.Range(), "", "no loop index %s in scope", what)
	return ir.NewError(types.I8, msg)
}

// field reads name from rec, mapping over sequences and guarding optional
// records.
func (b *binder) field(rec ir.Node, name string, rng syntax.Range) ir.Node {
	t := rec.Type()
	switch {
	case t.IsSequence():
		return liftOne(rec, ir.ScopeSequenceItem, func(item ir.Node) ir.Node { return b.field(item, name, rng) })
	case t.IsRecord() && t.IsOpt():
		return liftOne(rec, ir.ScopeGuard, func(item ir.Node) ir.Node { return b.field(item, name, rng) })
	case t.IsRecord():
		if _, ok := t.Field(name); ok {
			return ir.NewGetField(rec, name)
		}
		msg := b.report(CodeBadField, rng, "", "%s has no field %q", t, name)
		return ir.NewError(types.General, msg)
	}
	if rec.Mask().HasErrors() {
		return ir.NewError(types.General, "")
	}
	msg := b.report(CodeBadField, rng, "", "cannot read field %q of %s", name, t)
	return ir.NewError(types.General, msg)
}

func (b *binder) bindIndex(v *syntax.Index, stack *ir.ScopeStack) ir.Node {
	ten := b.bind(v.Tensor, stack)
	indices := make([]ir.Node, len(v.Indices))
	for i, ix := range v.Indices {
		n := b.bind(ix, stack)
		switch {
		case types.Accepts(types.I8, n.Type()):
			indices[i] = ir.NewCast(n, types.I8)
		case n.Mask().HasErrors():
			indices[i] = ir.NewError(types.I8, "")
		default:
			msg := b.report(CodeBadIndex, ix.Range(), "", "tensor index must be an integer, got %s", n.Type())
			indices[i] = ir.NewError(types.I8, msg)
		}
	}
	return b.index(ten, indices, v.Range())
}

func (b *binder) index(ten ir.Node, indices []ir.Node, rng syntax.Range) ir.Node {
	t := ten.Type()
	switch {
	case t.IsSequence():
		return liftOne(ten, ir.ScopeSequenceItem, func(item ir.Node) ir.Node { return b.index(item, indices, rng) })
	case t.IsTensor() && t.IsOpt():
		return liftOne(ten, ir.ScopeGuard, func(item ir.Node) ir.Node { return b.index(item, indices, rng) })
	case !t.IsTensor():
		if ten.Mask().HasErrors() {
			return ir.NewError(types.General, "")
		}
		msg := b.report(CodeBadIndex, rng, "", "cannot index %s", t)
		return ir.NewError(types.General, msg)
	case t.TensorRank() != len(indices):
		msg := b.report(CodeBadIndex, rng, "", "tensor of rank %d indexed with %d indices", t.TensorRank(), len(indices))
		return ir.NewError(t.ItemType(), msg)
	}
	return ir.NewIndex(ten, indices...)
}

// coerce converts n to want, reporting a type mismatch when it cannot.
// Subtrees that already carry errors convert silently to an error node.
func (b *binder) coerce(n ir.Node, want types.DType, rng syntax.Range) ir.Node {
	if n.Type() == want {
		return n
	}
	if types.Accepts(want, n.Type()) {
		return ir.NewCast(n, want)
	}
	if n.Mask().HasErrors() {
		return ir.NewError(want, "")
	}
	msg := b.report(CodeTypeMismatch, rng, "", "expected %s, got %s", want, n.Type())
	return ir.NewError(want, msg)
}

func syntaxPath(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return (&syntax.Name{Parts: parts}).Path()
}
