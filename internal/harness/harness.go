package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/quill/internal/binder"
	"github.com/roach88/quill/internal/catalog"
	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/reduce"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/testutil"
)

// Harness runs the cases of one suite against a shared environment.
type Harness struct {
	host   *ops.Registry
	funcs  binder.FuncSource
	opts   []binder.Option
	seq    *testutil.Sequencer
	logger *slog.Logger
}

// New prepares the environment of s: its globals, its catalog and a fixed
// session id.
func New(s *Suite) (*Harness, error) {
	host, err := testutil.NewHost(s.Globals)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", s.Name, err)
	}

	h := &Harness{
		host:   host,
		seq:    testutil.NewSequencer(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if s.Catalog != "" {
		cat, errs := catalog.Load(s.Catalog)
		if len(errs) > 0 {
			return nil, fmt.Errorf("suite %s: loading catalog: %w", s.Name, errs[0])
		}
		if err := cat.Apply(host); err != nil {
			return nil, fmt.Errorf("suite %s: applying catalog: %w", s.Name, err)
		}
		h.funcs = cat
	}

	h.opts = []binder.Option{
		binder.WithHost(host),
		binder.WithIDGenerator(testutil.NewFixedIDGenerator(s.SessionID)),
	}
	if h.funcs != nil {
		h.opts = append(h.opts, binder.WithFuncs(h.funcs))
	}
	if s.AllowVolatile {
		h.opts = append(h.opts, binder.WithAllowVolatile())
	}
	if s.AllowProcedures {
		h.opts = append(h.opts, binder.WithAllowProcedures())
	}
	return h, nil
}

// Run executes every case of s and returns the combined result. An error
// means the environment could not be built; failing cases are reported in
// the result.
func Run(s *Suite) (*Result, error) {
	h, err := New(s)
	if err != nil {
		return nil, err
	}

	result := NewResult(s.Name)
	for _, c := range s.Cases {
		cr := h.RunCase(c)
		result.Add(cr)
	}
	h.logger.Info("suite completed", "suite", s.Name, "cases", len(s.Cases), "pass", result.Pass)
	return result, nil
}

// RunCase parses, binds and reduces one case and checks its expectations.
func (h *Harness) RunCase(c Case) CaseResult {
	cr := CaseResult{Seq: h.seq.Next(), Name: c.Name, Expr: c.Expr, Pass: true}

	expr, err := syntax.Parse(c.Expr)
	if err != nil {
		cr.fail("parse: %v", err)
		return cr
	}

	bound := binder.Bind(expr, h.opts...)
	cr.SessionID = bound.SessionID
	cr.Type = bound.Root.Type().String()
	cr.Bound = ir.Dump(bound.Root)
	cr.Diagnostics = lo.Map(bound.Diagnostics, func(d binder.Diagnostic, _ int) string { return string(d.Code) })
	cr.Messages = lo.Map(bound.Diagnostics, func(d binder.Diagnostic, _ int) string { return d.String() })

	var warnings reduce.Collector
	cr.Reduced = ir.Dump(reduce.Reduce(bound.Root, &warnings))
	cr.Warnings = lo.Map(warnings.Codes(), func(code reduce.Code, _ int) string { return string(code) })
	for _, w := range warnings.Warnings {
		cr.Messages = append(cr.Messages, w.String())
	}

	if c.Expect != nil {
		h.check(&cr, c.Expect)
	}
	h.logger.Debug("case completed", "case", c.Name, "seq", cr.Seq, "pass", cr.Pass)
	return cr
}

func (h *Harness) check(cr *CaseResult, want *Expect) {
	if want.Type != "" && want.Type != cr.Type {
		cr.mismatch("type", want.Type, cr.Type)
	}
	if want.Bound != "" && want.Bound != cr.Bound {
		cr.mismatch("bound", want.Bound, cr.Bound)
	}
	if want.Reduced != "" && want.Reduced != cr.Reduced {
		cr.mismatch("reduced", want.Reduced, cr.Reduced)
	}
	if !slices.Equal(orEmpty(want.Diagnostics), orEmpty(cr.Diagnostics)) {
		cr.mismatch("diagnostics", fmt.Sprint(want.Diagnostics), fmt.Sprint(cr.Diagnostics))
	}
	if !slices.Equal(orEmpty(want.Warnings), orEmpty(cr.Warnings)) {
		cr.mismatch("warnings", fmt.Sprint(want.Warnings), fmt.Sprint(cr.Warnings))
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
