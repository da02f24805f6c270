package ops

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	"github.com/roach88/quill/internal/types"
)

// Host resolves names for the binder.
type Host interface {
	// LookupOp finds an operator by exact path.
	LookupOp(path string) (*Op, bool)

	// Replacement returns the suggested replacement of a deprecated path.
	Replacement(path string) (string, bool)

	// Fuzzy returns the closest known path to an unknown one.
	Fuzzy(path string) (string, bool)

	// LookupGlobal returns the type of an ambient global.
	LookupGlobal(name string) (types.DType, bool)

	// IsNamespace reports whether path names a namespace rather than a value.
	IsNamespace(path string) bool
}

// MaxFuzzyDistance is the largest edit distance accepted by Fuzzy.
const MaxFuzzyDistance = 2

// Namespaces used by pipe calls, keyed by the kind of the first argument.
const (
	NamespaceText   = "Text"
	NamespaceTensor = "Tensor"
	NamespaceSeq    = "Seq"
)

// PipeNamespace returns the namespace searched for a pipe call whose
// receiver has type t, or "" when t selects none.
func PipeNamespace(t types.DType) string {
	switch {
	case t.ToReq() == types.Text:
		return NamespaceText
	case t.IsTensor():
		return NamespaceTensor
	case t.IsSequence():
		return NamespaceSeq
	}
	return ""
}

// Registry is the default Host: a table of operators, deprecations and
// globals. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	ops        map[string]*Op
	deprecated map[string]string
	globals    map[string]types.DType
	namespaces map[string]bool
	fold       cases.Caser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ops:        make(map[string]*Op),
		deprecated: make(map[string]string),
		globals:    make(map[string]types.DType),
		namespaces: make(map[string]bool),
		fold:       cases.Fold(),
	}
}

// Default returns a registry holding every builtin operator, the Tally
// deprecation and no globals.
func Default() *Registry {
	r := NewRegistry()
	for _, op := range Builtins() {
		r.MustRegister(op)
	}
	r.MustDeprecate("Tally", Count.Path())
	return r
}

// Register adds op under its path. Each dotted prefix of the path becomes a
// namespace.
func (r *Registry) Register(op *Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := op.Path()
	if _, exists := r.ops[path]; exists {
		return fmt.Errorf("operator %q already registered", path)
	}
	r.ops[path] = op
	parts := strings.Split(path, ".")
	for i := 1; i < len(parts); i++ {
		r.namespaces[strings.Join(parts[:i], ".")] = true
	}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(op *Op) {
	if err := r.Register(op); err != nil {
		panic(err)
	}
}

// Deprecate makes old an alias of the registered operator replacement.
// Binding old reports a deprecation warning suggesting replacement.
func (r *Registry) Deprecate(old, replacement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[replacement]
	if !ok {
		return fmt.Errorf("deprecation %q: unknown replacement %q", old, replacement)
	}
	if _, exists := r.ops[old]; exists {
		return fmt.Errorf("deprecation %q: name is a live operator", old)
	}
	r.deprecated[old] = replacement
	r.ops[old] = op
	return nil
}

// MustDeprecate is Deprecate that panics on error.
func (r *Registry) MustDeprecate(old, replacement string) {
	if err := r.Deprecate(old, replacement); err != nil {
		panic(err)
	}
}

// SetGlobal declares an ambient global of type t.
func (r *Registry) SetGlobal(name string, t types.DType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = t
}

// LookupOp implements Host.
func (r *Registry) LookupOp(path string) (*Op, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[path]
	return op, ok
}

// Replacement implements Host.
func (r *Registry) Replacement(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	repl, ok := r.deprecated[path]
	return repl, ok
}

// LookupGlobal implements Host.
func (r *Registry) LookupGlobal(name string) (types.DType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.globals[name]
	return t, ok
}

// IsNamespace implements Host.
func (r *Registry) IsNamespace(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namespaces[path]
}

// Paths returns the registered operator paths in sorted order, excluding
// deprecated aliases.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := lo.Filter(lo.Keys(r.ops), func(p string, _ int) bool {
		_, dep := r.deprecated[p]
		return !dep
	})
	slices.Sort(paths)
	return paths
}

// Fuzzy implements Host. Paths are compared case-folded; the closest live
// operator within MaxFuzzyDistance wins, ties broken by path order. Syntax
// operators are never suggested.
func (r *Registry) Fuzzy(path string) (string, bool) {
	want := r.fold.String(path)
	candidates := lo.Filter(r.Paths(), func(p string, _ int) bool { return isIdentPath(p) })
	best := suggest(want, candidates, func(p string) string { return r.fold.String(p) })
	if len(best) == 0 {
		return "", false
	}
	return best[0], true
}

func isIdentPath(p string) bool {
	if p == "" {
		return false
	}
	c := p[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
