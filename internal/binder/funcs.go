package binder

import (
	"fmt"
	"log/slog"

	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

// Param is one user function parameter. A zero Type takes the type of the
// argument.
type Param struct {
	Name string
	Type types.DType
}

// Func is a user-defined function. Calls are inlined: the body is bound
// with each parameter visible as a with scope over its argument.
type Func struct {
	Path    string
	Params  []Param
	Returns types.DType // zero: the body's type
	Body    syntax.Node
}

// Arity returns the number of parameters.
func (f *Func) Arity() int { return len(f.Params) }

// FuncSource supplies user-defined functions by path.
type FuncSource interface {
	LookupFunc(path string) (*Func, bool)
}

// FuncMap is a FuncSource backed by a map.
type FuncMap map[string]*Func

// LookupFunc implements FuncSource.
func (m FuncMap) LookupFunc(path string) (*Func, bool) {
	f, ok := m[path]
	return f, ok
}

// expansionKey identifies a function expansion in progress.
func expansionKey(path string, arity int) string {
	return fmt.Sprintf("%s/%d", path, arity)
}

// restrictedHost forwards operator lookup but hides ambient globals. User
// function bodies bind under it.
type restrictedHost struct {
	ops.Host
}

func (restrictedHost) LookupGlobal(string) (types.DType, bool) {
	return types.DType{}, false
}

// expand inlines a call to f. Arguments bind in the caller's scopes; the
// body sees only the parameters, operators and other functions.
func (b *binder) expand(c *syntax.Call, f *Func, stack *ir.ScopeStack) ir.Node {
	ret := f.Returns
	if !ret.IsValid() {
		ret = types.General
	}
	key := expansionKey(f.Path, f.Arity())
	if _, busy := b.expanding.Get(key); busy {
		msg := b.report(CodeRecursion, c.PathRange, "", "%s calls itself", f.Path)
		return ir.NewError(ret, msg)
	}
	if len(c.Args) != f.Arity() {
		b.report(CodeArity, c.Range(), "", "%s takes %d arguments, got %d", f.Path, f.Arity(), len(c.Args))
	}

	args := make([]ir.Node, 0, f.Arity()+1)
	scopes := make([]*ir.Scope, 0, f.Arity()+1)
	var params *ir.ScopeStack
	for i, p := range f.Params {
		var n ir.Node
		rng := c.Range()
		if i < len(c.Args) {
			n = b.bind(c.Args[i].Value, stack)
			rng = c.Args[i].Value.Range()
		} else {
			t := p.Type
			if !t.IsValid() {
				t = types.General
			}
			n = ir.NewMissing(t)
		}
		if p.Type.IsValid() {
			n = b.coerce(n, p.Type, rng)
		}
		s := ir.NewScope(ir.ScopeWith, n.Type(), p.Name)
		args = append(args, n)
		scopes = append(scopes, s)
		params = params.Push(s, p.Name)
	}

	slog.Debug("expanding function", "path", f.Path, "arity", f.Arity())
	host, expanding, inFunc := b.host, b.expanding, b.inFunc
	// Every expansion binds the same body tree, so promotions keyed by its
	// call ids belong to this expansion only.
	promotions := b.st.promotions
	b.host = restrictedHost{Host: b.cfg.host}
	b.expanding = expanding.Set(key, struct{}{})
	b.inFunc = true
	body := b.bind(f.Body, params)
	b.host, b.expanding, b.inFunc = host, expanding, inFunc
	b.st.promotions = promotions

	if f.Returns.IsValid() {
		body = b.coerce(body, f.Returns, c.Range())
	}
	if len(args) == 0 {
		return body
	}
	return ir.NewCall(ops.With, body.Type(), append(args, body), append(scopes, nil), nil, ir.Pure)
}
