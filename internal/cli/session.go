package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/quill/internal/binder"
	"github.com/roach88/quill/internal/catalog"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/types"
)

// Error codes for command-level failures.
const (
	ErrCodeParse   = "P001" // expression does not parse
	ErrCodeGlobal  = "G001" // bad --global flag
	ErrCodeCatalog = "E001" // catalog could not be used
)

// session is the binding environment assembled from the global flags.
type session struct {
	host    *ops.Registry
	catalog *catalog.Catalog
}

// newSession builds the operator registry, applies the catalog named by
// --catalog and declares every --global. Catalog globals are applied first
// so flags can override them. On failure the error code is returned with
// the error.
func newSession(opts *RootOptions) (*session, string, error) {
	s := &session{host: ops.Default()}

	if opts.Catalog != "" {
		cat, errs := catalog.Load(opts.Catalog)
		if cat == nil || len(errs) > 0 {
			return nil, ErrCodeCatalog, fmt.Errorf("loading catalog %s: %w", opts.Catalog, errors.Join(errs...))
		}
		if err := cat.Apply(s.host); err != nil {
			return nil, ErrCodeCatalog, fmt.Errorf("applying catalog %s: %w", opts.Catalog, err)
		}
		s.catalog = cat
		slog.Debug("catalog applied", "dir", opts.Catalog, "funcs", len(cat.Decls))
	}

	for _, g := range opts.Globals {
		name, typ, err := parseGlobal(g)
		if err != nil {
			return nil, ErrCodeGlobal, err
		}
		s.host.SetGlobal(name, typ)
		slog.Debug("global declared", "name", name, "type", typ.String())
	}
	return s, "", nil
}

// parseGlobal splits a name:type flag value.
func parseGlobal(flag string) (string, types.DType, error) {
	name, typ, ok := strings.Cut(flag, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", types.DType{}, fmt.Errorf("global %q: want name:type", flag)
	}
	t, err := types.Parse(strings.TrimSpace(typ))
	if err != nil {
		return "", types.DType{}, fmt.Errorf("global %s: %w", name, err)
	}
	return name, t, nil
}

// options returns the binder options of the session.
func (s *session) options(allowVolatile, allowProcedures bool) []binder.Option {
	opts := []binder.Option{binder.WithHost(s.host)}
	if s.catalog != nil {
		opts = append(opts, binder.WithFuncs(s.catalog))
	}
	if allowVolatile {
		opts = append(opts, binder.WithAllowVolatile())
	}
	if allowProcedures {
		opts = append(opts, binder.WithAllowProcedures())
	}
	return opts
}
