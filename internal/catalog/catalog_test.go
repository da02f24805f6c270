package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/binder"
	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/reduce"
	"github.com/roach88/quill/internal/syntax"
	"github.com/roach88/quill/internal/types"
)

func catalogDir() string {
	return filepath.Join("..", "..", "testdata", "catalog")
}

func writeCUE(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
}

func TestLoad_Testdata(t *testing.T) {
	c, errs := Load(catalogDir())
	require.Empty(t, errs)
	require.NotNil(t, c)

	assert.Equal(t, 2, c.FileCount)
	assert.Equal(t, []string{"Clamp", "Square", "SumSquares", "Text.Shout"}, c.Paths())
	assert.Equal(t, map[string]string{"Length": "Text.Len"}, c.Deprecated)
	assert.Equal(t, map[string]string{"rate": "r8", "names": "s*"}, c.Globals)

	clamp, ok := c.LookupFunc("Clamp")
	require.True(t, ok)
	assert.Equal(t, 3, clamp.Arity())
	assert.Equal(t, types.I8, clamp.Returns)
	assert.Equal(t, types.I8, clamp.Params[1].Type)

	square, ok := c.LookupFunc("Square")
	require.True(t, ok)
	assert.False(t, square.Params[0].Type.IsValid(), "untyped parameters take the argument type")
	assert.False(t, square.Returns.IsValid())

	_, ok = c.LookupFunc("Missing")
	assert.False(t, ok)
}

func TestLoad_NotFound(t *testing.T) {
	c, errs := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Nil(t, c)
	require.Len(t, errs, 1)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoad_NoFiles(t *testing.T) {
	c, errs := Load(t.TempDir())
	assert.Nil(t, c)
	require.Len(t, errs, 1)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoad_BadCUE(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `functions: { Broken: {`)

	c, errs := Load(dir)
	assert.Nil(t, c)
	require.NotEmpty(t, errs)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Contains(t, []string{ErrCodeLoadFailed, ErrCodeBuildFailed}, le.Code)
}

func TestLoad_CollectsValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "funcs.cue", `
functions: {
	Good: {params: ["a"], body: "a + 1"}
	NoBody: {params: ["a"]}
	BadType: {params: [{name: "a", type: "i9"}], body: "a"}
	BadBody: {body: "1 +"}
}
`)

	c, errs := Load(dir)
	require.NotNil(t, c)
	require.Len(t, errs, 3)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le), "compile errors come first")
	assert.Contains(t, le.Message, "NoBody")

	var codes []string
	for _, err := range errs[1:] {
		var ve ValidationError
		require.True(t, errors.As(err, &ve))
		codes = append(codes, ve.Code)
	}
	assert.ElementsMatch(t, []string{ErrInvalidType, ErrBodySyntax}, codes)

	assert.Equal(t, []string{"Good"}, c.Paths(), "only compiling functions are callable")
}

func TestCatalog_Apply(t *testing.T) {
	c, errs := Load(catalogDir())
	require.Empty(t, errs)

	host, err := c.Host()
	require.NoError(t, err)

	rate, ok := host.LookupGlobal("rate")
	require.True(t, ok)
	assert.Equal(t, types.R8, rate)

	repl, ok := host.Replacement("Length")
	require.True(t, ok)
	assert.Equal(t, "Text.Len", repl)
}

func TestCatalog_ApplyReportsBadEntries(t *testing.T) {
	c := New()
	c.Globals["bad"] = "i9"
	c.Deprecated["Old"] = "Nowhere"

	_, err := c.Host()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global bad")
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestCatalog_BindsAndReduces(t *testing.T) {
	c, errs := Load(catalogDir())
	require.Empty(t, errs)
	host, err := c.Host()
	require.NoError(t, err)

	bind := func(src string) *binder.Result {
		t.Helper()
		res := binder.Bind(syntax.MustParse(src),
			binder.WithHost(host),
			binder.WithFuncs(c),
			binder.WithIDGenerator(binder.NewSequenceGenerator("s1")))
		require.Empty(t, res.Diagnostics, "diagnostics for %s", src)
		return res
	}

	res := bind("Clamp(15, 0, 10)")
	assert.Equal(t, types.I8, res.Root.Type())
	out := reduce.Reduce(res.Root, &reduce.Collector{})
	assert.Equal(t, "10:i8", ir.Dump(out))

	res = bind(`Text.Shout("hi")`)
	assert.Equal(t, types.Text, res.Root.Type())
	out = reduce.Reduce(res.Root, &reduce.Collector{})
	assert.Equal(t, `Concat(Text.Upper("hi":s), "!":s)`, ir.Dump(out))
}

func TestCatalog_DeprecatedAliasWarns(t *testing.T) {
	c, errs := Load(catalogDir())
	require.Empty(t, errs)
	host, err := c.Host()
	require.NoError(t, err)

	res := binder.Bind(syntax.MustParse("Length(\"abc\")"), binder.WithHost(host))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, binder.CodeDeprecated, res.Diagnostics[0].Code)
	assert.Equal(t, "Text.Len", res.Diagnostics[0].Suggestion)
}
