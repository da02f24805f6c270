package binder

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

// arg is one argument of an invocation. node is set when the argument was
// bound ahead of the call; missing marks padding added for a short call.
type arg struct {
	syn     *syntax.Arg
	node    ir.Node
	missing bool
}

type invocation struct {
	id   int64 // syntax node id, keys promotions
	rng  syntax.Range
	op   *ops.Op
	args []arg
}

func (inv invocation) with(i int, n ir.Node) invocation {
	inv.args = slices.Clone(inv.args)
	inv.args[i].node = n
	return inv
}

func (inv invocation) argRange(i int) syntax.Range {
	if a := inv.args[i]; a.syn != nil {
		return a.syn.Value.Range()
	}
	return inv.rng
}

func (b *binder) bindCall(c *syntax.Call, stack *ir.ScopeStack) ir.Node {
	if op, ok := b.host.LookupOp(c.Path); ok {
		if repl, ok := b.host.Replacement(c.Path); ok {
			b.report(CodeDeprecated, c.PathRange, repl, "%s is deprecated, use %s", c.Path, repl)
		}
		return b.invoke(b.newInvocation(c, op), stack)
	}
	if c.Pipe {
		if op, ok := b.lookupPipe(c, stack); ok {
			return b.invoke(b.newInvocation(c, op), stack)
		}
	}
	if b.cfg.funcs != nil {
		if f, ok := b.cfg.funcs.LookupFunc(c.Path); ok {
			return b.expand(c, f, stack)
		}
	}
	if s, ok := b.host.Fuzzy(c.Path); ok {
		if op, ok := b.host.LookupOp(s); ok {
			b.report(CodeFuzzyMatch, c.PathRange, s, "unknown operator %q, using %s", c.Path, s)
			return b.invoke(b.newInvocation(c, op), stack)
		}
	}
	msg := b.report(CodeUnknownOperator, c.PathRange, "", "unknown operator %q", c.Path)
	for _, a := range c.Args {
		b.bind(a.Value, stack)
	}
	return ir.NewError(types.General, msg)
}

// lookupPipe resolves a->F() in the namespace selected by the receiver's
// type. The receiver is bound only to learn its type.
func (b *binder) lookupPipe(c *syntax.Call, stack *ir.ScopeStack) (*ops.Op, bool) {
	if len(c.Args) == 0 {
		return nil, false
	}
	saved, promoted := b.st, b.promoted
	recv := b.bind(c.Args[0].Value, stack)
	b.st, b.promoted = saved, promoted

	ns := ops.PipeNamespace(recv.Type())
	if ns == "" {
		return nil, false
	}
	return b.host.LookupOp(ns + "." + c.Path)
}

func (b *binder) newInvocation(c *syntax.Call, op *ops.Op) invocation {
	inv := invocation{id: c.ID(), rng: c.Range(), op: op}
	n := len(c.Args)
	if !op.AcceptsArity(n) {
		b.report(CodeArity, c.Range(), "", "%s takes %s, got %d", op.Path(), arityText(op), n)
		n = op.ClampArity(n)
	}
	for i := 0; i < n; i++ {
		if i < len(c.Args) {
			inv.args = append(inv.args, arg{syn: &c.Args[i]})
		} else {
			inv.args = append(inv.args, arg{missing: true})
		}
	}
	return inv
}

func arityText(op *ops.Op) string {
	lo, hi := op.Arity()
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d arguments", lo)
	case lo == hi:
		return fmt.Sprintf("%d arguments", lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}

// invokeNodes calls op on operands that are already bound.
func (b *binder) invokeNodes(n syntax.Node, op *ops.Op, nodes ...ir.Node) ir.Node {
	inv := invocation{id: n.ID(), rng: n.Range(), op: op}
	for _, x := range nodes {
		inv.args = append(inv.args, arg{node: x})
	}
	return b.invoke(inv, nil)
}

func (b *binder) invoke(inv invocation, stack *ir.ScopeStack) ir.Node {
	n := len(inv.args)
	if n > 0 && inv.op.LiftsFirstScope(n) && inv.args[0].syn != nil && inv.args[0].node == nil {
		first := b.bind(inv.args[0].syn.Value, stack)
		if first.Type().IsSequence() {
			item := ir.NewScope(ir.ScopeSequenceItem, first.Type().ItemType(), "")
			body := b.invoke(inv.with(0, item.Ref()), stack)
			return wrap(ir.ScopeSequenceItem, []ir.Node{first}, []*ir.Scope{item}, body)
		}
		inv = inv.with(0, first)
	}
	return b.resolve(inv, stack)
}

// resolve binds the call, rebinding it while Specialize asks for a wider
// accumulator. Diagnostics of an abandoned pass are dropped; promotions
// are kept.
func (b *binder) resolve(inv invocation, stack *ir.ScopeStack) ir.Node {
	for attempt := 0; ; attempt++ {
		saved := b.st.diags
		node, retry := b.pass(inv, stack, attempt == MaxPromotionRetries)
		if !retry {
			return node
		}
		b.st.diags = saved
		slog.Debug("rebinding with promoted accumulator", "op", inv.op.Path(), "attempt", attempt+1)
	}
}

// call is the state of one binding pass.
type call struct {
	inv    invocation
	slots  []ops.Slot
	args   []ir.Node
	scopes []*ir.Scope
	names  []string
	// lifts holds, per scope slot, the wrappers stripped from the argument
	// that still have to be lifted, outermost first.
	lifts [][]liftStep
	index *ir.Scope
	final bool
	// unnamed is set when a slot that requires a name has none.
	unnamed bool
}

func (c *call) clone() *call {
	cp := *c
	cp.args = slices.Clone(c.args)
	cp.lifts = slices.Clone(c.lifts)
	return &cp
}

func (c *call) hasErrors() bool {
	for _, a := range c.args {
		if a.Mask().HasErrors() {
			return true
		}
	}
	return false
}

func (b *binder) pass(inv invocation, stack *ir.ScopeStack, final bool) (ir.Node, bool) {
	n := len(inv.args)
	c := &call{
		inv:    inv,
		slots:  inv.op.Slots(n),
		args:   make([]ir.Node, n),
		scopes: make([]*ir.Scope, n),
		names:  make([]string, n),
		lifts:  make([][]liftStep, n),
		final:  final,
	}
	if inv.op.HasIndex() {
		c.index = ir.NewScope(ir.ScopeSequenceIndex, types.I8, "")
	}

	for i, slot := range c.slots {
		visible := stack
		for j := slot.NestStart; j < i; j++ {
			if c.scopes[j] != nil {
				visible = visible.Push(c.scopes[j], c.names[j])
			}
		}
		if slot.Index && c.index != nil {
			visible = visible.Push(c.index, "#")
			for j := slot.NestStart; j < i; j++ {
				if c.scopes[j] != nil && c.names[j] != "" && c.scopes[j].Kind() == ir.ScopeSequenceItem {
					visible = visible.Push(c.index, "#"+c.names[j])
				}
			}
		}

		node := b.bindArg(inv.args[i], visible)
		if slot.NoVolatile && node.Mask()&ir.MaskVolatile != 0 {
			msg := b.report(CodeVolatile, inv.argRange(i), "", "%s does not allow volatile calls in this argument", inv.op.Path())
			node = ir.NewError(node.Type(), msg)
		}
		if slot.Scope == ir.ScopeNone {
			c.args[i] = node
			b.nameOrdinary(c, i)
			continue
		}
		b.bindScope(c, i, node)
	}

	if c.index != nil && !c.usesIndex() {
		c.index = nil
	}
	return b.finish(c)
}

func (b *binder) bindArg(a arg, stack *ir.ScopeStack) ir.Node {
	switch {
	case a.node != nil:
		return a.node
	case a.missing:
		return ir.NewMissing(types.General)
	}
	return b.bind(a.syn.Value, stack)
}

func (c *call) usesIndex() bool {
	for i, slot := range c.slots {
		if slot.Index && ir.Uses(c.args[i], c.index) {
			return true
		}
	}
	return false
}

func (b *binder) nameOrdinary(c *call, i int) {
	a, slot := c.inv.args[i], c.slots[i]
	if a.missing {
		c.unnamed = c.unnamed || slot.Name == ops.NameRequired
		return
	}
	if a.syn == nil {
		return
	}
	if a.syn.Directive != syntax.DirectiveNone {
		b.report(CodeIllegalDirective, a.syn.Value.Range(), "", "[%s] is not allowed on this argument of %s", a.syn.Directive, c.inv.op.Path())
	}
	switch {
	case slot.Name == ops.NameRequired && a.syn.Name == "":
		b.report(CodeIllegalName, a.syn.Value.Range(), "", "argument %d of %s needs a name", i+1, c.inv.op.Path())
		c.unnamed = true
	case slot.Name == ops.NameForbidden && a.syn.Name != "":
		b.report(CodeIllegalName, a.syn.NameRange, "", "argument %d of %s cannot be named", i+1, c.inv.op.Path())
	default:
		c.names[i] = a.syn.Name
	}
}

// bindScope derives the scope introduced by slot i from its bound argument.
func (b *binder) bindScope(c *call, i int, node ir.Node) {
	slot, a := c.slots[i], c.inv.args[i]
	kind := slot.Scope
	if a.syn != nil && a.syn.Directive != syntax.DirectiveNone {
		switch {
		case !slot.Directive:
			b.report(CodeIllegalDirective, a.syn.Value.Range(), "", "[%s] is not allowed on this argument of %s", a.syn.Directive, c.inv.op.Path())
		case a.syn.Directive == syntax.DirectiveWith:
			kind = ir.ScopeWith
		default:
			kind = ir.ScopeGuard
		}
	}

	stripped, lifts := strip(node.Type(), slot.Lifts)
	var natural types.DType
	switch kind {
	case ir.ScopeSequenceItem:
		if stripped.Kind() == types.KindVac {
			stripped = types.Sequence(types.Vac)
			node = ir.NewCast(node, rewrap(stripped, lifts))
		}
		if !stripped.IsSequence() {
			if !node.Mask().HasErrors() {
				b.report(CodeNeedsSequence, c.inv.argRange(i), "", "%s expects a sequence, got %s", c.inv.op.Path(), stripped)
			}
			stripped = types.Sequence(stripped)
			node = ir.DefaultOf(rewrap(stripped, lifts))
		}
		natural = stripped.ItemType()
	case ir.ScopeTensorItem:
		if !stripped.IsTensor() || stripped.IsOpt() {
			if !node.Mask().HasErrors() {
				b.report(CodeNeedsTensor, c.inv.argRange(i), "", "%s expects a tensor, got %s", c.inv.op.Path(), stripped)
			}
			stripped = types.Tensor(stripped, 1)
			node = ir.DefaultOf(rewrap(stripped, lifts))
		}
		natural = stripped.ItemType()
	case ir.ScopeGuard:
		if stripped.CanBeNull() {
			natural = stripped.ToReq()
		} else {
			kind = ir.ScopeWith
			natural = stripped
		}
	default:
		natural = stripped
	}

	st := c.inv.op.ScopeType(i, natural)
	if kind == ir.ScopeIterate {
		if p, ok := b.st.promotions.Get(promotionKey(c.inv.id, i)); ok {
			st = p
		}
	}
	if st != natural {
		node = b.coerce(node, rewrap(st, lifts), c.inv.argRange(i))
	}

	name := b.scopeName(c, i)
	c.scopes[i] = ir.NewScope(kind, st, name)
	c.names[i] = name
	c.args[i] = node
	c.lifts[i] = lifts
}

// scopeName returns the explicit name of a scope argument, or the implicit
// name of a plain identifier argument.
func (b *binder) scopeName(c *call, i int) string {
	a := c.inv.args[i]
	if a.syn == nil {
		return ""
	}
	if a.syn.Name != "" {
		if c.slots[i].Name == ops.NameForbidden {
			b.report(CodeIllegalName, a.syn.NameRange, "", "argument %d of %s cannot be named", i+1, c.inv.op.Path())
			return ""
		}
		return a.syn.Name
	}
	if nm, ok := a.syn.Value.(*syntax.Name); ok && len(nm.Parts) == 1 {
		return nm.Parts[0]
	}
	return ""
}

func (b *binder) finish(c *call) (ir.Node, bool) {
	b.resolveNulls(c)
	for _, cat := range liftOrder {
		if c.pending(cat) {
			return b.liftCall(c, cat)
		}
	}
	return b.specialize(c)
}

// resolveNulls gives null literals in slots that lift over optionals the
// optional form of the slot's target type, so they lift like any other
// optional argument.
func (b *binder) resolveNulls(c *call) {
	var idx []int
	for i, a := range c.args {
		if c.scopes[i] == nil && c.slots[i].Lifts.Has(ops.LiftOpt) && a.Type().Kind() == types.KindVac {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	sig := c.inv.op.Specialize(ops.SpecContext{Args: argTypes(c.args), Scopes: c.scopes})
	if sig.Fail != "" {
		return
	}
	for _, i := range idx {
		if want := sig.Want[i]; want.IsValid() && want.HasOptForm() {
			c.args[i] = ir.NewCast(c.args[i], want.ToOpt())
		}
	}
}

func (b *binder) specialize(c *call) (ir.Node, bool) {
	op := c.inv.op
	sig := op.Specialize(ops.SpecContext{Args: argTypes(c.args), Scopes: c.scopes})
	if sig.Fail != "" {
		if !c.hasErrors() {
			b.report(CodeTypeMismatch, c.inv.rng, "", "%s", sig.Fail)
		}
		return ir.NewError(types.General, sig.Fail), false
	}
	ret := sig.Ret
	if !ret.IsValid() {
		ret = types.General
	}

	for i, s := range c.scopes {
		if s == nil {
			continue
		}
		want := sig.Want[i]
		if !want.IsValid() || want == s.Type() {
			continue
		}
		if s.Kind() == ir.ScopeIterate && len(c.lifts[i]) == 0 && types.Accepts(want, s.Type()) {
			if c.final {
				msg := b.report(CodePromotionFailed, c.inv.argRange(i), "",
					"%s: accumulator type did not settle after %d promotions", op.Path(), MaxPromotionRetries)
				return ir.NewError(ret, msg), false
			}
			b.st.promotions = b.st.promotions.Set(promotionKey(c.inv.id, i), want)
			b.promoted++
			return nil, true
		}
		if c.hasErrors() {
			return ir.NewError(ret, ""), false
		}
		msg := b.report(CodeTypeMismatch, c.inv.argRange(i), "", "%s expects %s here, got %s", op.Path(), want, s.Type())
		return ir.NewError(ret, msg), false
	}

	args := slices.Clone(c.args)
	for i := range args {
		want := sig.Want[i]
		if c.scopes[i] != nil || !want.IsValid() {
			continue
		}
		if c.inv.args[i].missing {
			args[i] = ir.NewMissing(want)
			continue
		}
		args[i] = b.coerce(args[i], want, c.inv.argRange(i))
	}
	if c.unnamed {
		return ir.NewError(ret, ""), false
	}

	node := op.Build(ops.BuildContext{Ret: ret, Args: args, Scopes: c.scopes, Index: c.index, Names: c.names})
	return b.checkPurity(c, node), false
}

func (b *binder) checkPurity(c *call, node ir.Node) ir.Node {
	switch c.inv.op.Purity() {
	case ir.Volatile:
		if b.cfg.allowVolatile && !b.inFunc {
			return node
		}
		msg := b.report(CodeVolatile, c.inv.rng, "", "volatile operator %s is not allowed here", c.inv.op.Path())
		return ir.NewError(node.Type(), msg)
	case ir.Procedure:
		if b.cfg.allowProcedures && !b.inFunc {
			return node
		}
		msg := b.report(CodeProcedure, c.inv.rng, "", "procedure %s is not allowed here", c.inv.op.Path())
		return ir.NewError(node.Type(), msg)
	}
	return node
}

func argTypes(args []ir.Node) []types.DType {
	ts := make([]types.DType, len(args))
	for i, a := range args {
		ts[i] = a.Type()
	}
	return ts
}
