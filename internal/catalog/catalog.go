package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/quill/internal/binder"
	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

// Load error codes (E001-E099).
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// LoadError represents an error that occurred while loading a catalog.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Catalog holds user-defined functions, deprecated operator aliases and
// ambient globals declared in CUE. It implements binder.FuncSource.
type Catalog struct {
	Decls      []FuncDecl
	Deprecated map[string]string // old path -> replacement operator
	Globals    map[string]string // name -> type string

	// Value is the raw CUE value the catalog was read from, if any.
	Value     cue.Value
	FileCount int

	funcs map[string]*binder.Func
}

var _ binder.FuncSource = (*Catalog)(nil)

// New returns a catalog of the given declarations. Declarations that do
// not compile are left out of LookupFunc; Validate reports them.
func New(decls ...FuncDecl) *Catalog {
	c := &Catalog{
		Decls:      decls,
		Deprecated: make(map[string]string),
		Globals:    make(map[string]string),
	}
	c.build()
	return c
}

func (c *Catalog) build() {
	c.funcs = make(map[string]*binder.Func, len(c.Decls))
	for i := range c.Decls {
		d := &c.Decls[i]
		if _, dup := c.funcs[d.Path]; dup {
			continue
		}
		f, err := d.Func()
		if err != nil {
			slog.Debug("skipping function", "path", d.Path, "error", err)
			continue
		}
		c.funcs[d.Path] = f
	}
}

// LookupFunc implements binder.FuncSource.
func (c *Catalog) LookupFunc(path string) (*binder.Func, bool) {
	f, ok := c.funcs[path]
	return f, ok
}

// Paths returns the paths of the usable functions in sorted order.
func (c *Catalog) Paths() []string {
	return slices.Sorted(maps.Keys(c.funcs))
}

// Apply declares the catalog's globals and deprecations on r.
func (c *Catalog) Apply(r *ops.Registry) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(c.Globals)) {
		t, err := types.Parse(c.Globals[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("global %s: %w", name, err))
			continue
		}
		r.SetGlobal(name, t)
	}
	for _, old := range slices.Sorted(maps.Keys(c.Deprecated)) {
		if err := r.Deprecate(old, c.Deprecated[old]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Host returns the default operator registry extended with the catalog's
// globals and deprecations.
func (c *Catalog) Host() (*ops.Registry, error) {
	r := ops.Default()
	if err := c.Apply(r); err != nil {
		return r, err
	}
	return r, nil
}

// Func parses the declared types and body into a binder function.
func (d *FuncDecl) Func() (*binder.Func, error) {
	f := &binder.Func{Path: d.Path}
	for _, p := range d.Params {
		bp := binder.Param{Name: p.Name}
		if p.Type != "" {
			t, err := types.Parse(p.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: param %s: %w", d.Path, p.Name, err)
			}
			bp.Type = t
		}
		f.Params = append(f.Params, bp)
	}
	if d.Returns != "" {
		t, err := types.Parse(d.Returns)
		if err != nil {
			return nil, fmt.Errorf("%s: returns: %w", d.Path, err)
		}
		f.Returns = t
	}
	body, err := syntax.Parse(d.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: body: %w", d.Path, err)
	}
	f.Body = body
	return f, nil
}

// Load reads every CUE file in dir and compiles the functions, deprecated and
// global sections. Errors are collected; a nil catalog means nothing could
// be read at all. Validation errors are included in the returned errors.
func Load(dir string) (*Catalog, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	c, errs := FromValue(value)
	c.FileCount = len(files)
	slog.Debug("loaded catalog", "dir", dir, "files", len(files), "funcs", len(c.funcs))
	for _, ve := range Validate(c) {
		errs = append(errs, ve)
	}
	return c, errs
}

// FromValue reads a catalog from an already built CUE value.
func FromValue(value cue.Value) (*Catalog, []error) {
	var errs []error
	var decls []FuncDecl

	if fv := value.LookupPath(cue.ParsePath("functions")); fv.Exists() {
		iter, err := fv.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating functions: %v", err)})
		} else {
			for iter.Next() {
				decl, err := CompileFunc(iter.Value())
				if err != nil {
					errs = append(errs, convertCompileError(err, "functions."+iter.Label()))
					continue
				}
				decls = append(decls, *decl)
			}
		}
	}

	c := New(decls...)
	c.Value = value
	errs = append(errs, readStrings(value, "deprecated", c.Deprecated)...)
	errs = append(errs, readStrings(value, "global", c.Globals)...)
	return c, errs
}

// readStrings copies a struct of string fields into into.
func readStrings(value cue.Value, section string, into map[string]string) []error {
	sv := value.LookupPath(cue.ParsePath(section))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", section, err)}}
	}
	var errs []error
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			errs = append(errs, convertCompileError(formatCUEError(err), section+"."+iter.Label()))
			continue
		}
		into[iter.Label()] = s
	}
	return errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%s: %s: %s", context, ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
