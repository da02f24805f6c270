package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/types"
)

func catalogDir() string {
	return filepath.Join("..", "..", "testdata", "catalog")
}

func decodeBind(t *testing.T, out string) (CLIResponse, BindOutput) {
	t.Helper()
	var raw struct {
		CLIResponse
		Data BindOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	return raw.CLIResponse, raw.Data
}

func TestBind_Text(t *testing.T) {
	out, err := execute(t, "bind", "--global", "x:i8", "x + 1")
	require.NoError(t, err)
	assert.Contains(t, out, "type:    i8")
	assert.Contains(t, out, "bound:   ")
	assert.NotContains(t, out, "reduced:")
}

func TestBind_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "bind", "1 + 2")
	require.NoError(t, err)

	resp, data := decodeBind(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, "1 + 2", data.Expr)
	assert.Equal(t, "i8", data.Type)
	assert.NotEmpty(t, data.SessionID)
	assert.Empty(t, data.Diagnostics)
	assert.Empty(t, data.Reduced)
}

func TestBind_UnknownOperator(t *testing.T) {
	out, err := execute(t, "--format", "json", "bind", "Frobnicate(1)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "binding failed with 1 error(s)")

	resp, data := decodeBind(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "B001", resp.Error.Code)
	require.Len(t, data.Diagnostics, 1)
	assert.Equal(t, "error", data.Diagnostics[0].Severity)
	assert.Equal(t, 0, data.Diagnostics[0].Start)
}

func TestBind_DeprecatedIsWarningOnly(t *testing.T) {
	out, err := execute(t, "bind", "--global", "s:i8*", "Tally(s)")
	require.NoError(t, err)
	assert.Contains(t, out, "warning B004")
	assert.Contains(t, out, "did you mean Count?")
}

func TestBind_ParseError(t *testing.T) {
	out, err := execute(t, "bind", "1 +")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [P001]")
}

func TestBind_BadGlobal(t *testing.T) {
	tests := []struct {
		name string
		flag string
	}{
		{"no type", "x"},
		{"empty name", ":i8"},
		{"bad type", "x:i9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "bind", "--global", tt.flag, "1")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [G001]")
		})
	}
}

func TestBind_Volatile(t *testing.T) {
	_, err := execute(t, "bind", "Now()")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "bind", "--allow-volatile", "Now()")
	require.NoError(t, err)
}

func TestReduce_Text(t *testing.T) {
	out, err := execute(t, "reduce", "--global", "x:i8", "1 + 2 + x + 3")
	require.NoError(t, err)
	assert.Contains(t, out, "reduced: Add(x, 6:i8)")
}

func TestReduce_WarningsDoNotFail(t *testing.T) {
	out, err := execute(t, "--format", "json", "reduce", "--global", "x:i8", "Div(x, 0)")
	require.NoError(t, err)

	resp, data := decodeBind(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "0:i8", data.Reduced)
	require.Len(t, data.Warnings, 1)
	assert.Equal(t, "R003", data.Warnings[0].Code)
}

func TestReduce_WithCatalog(t *testing.T) {
	out, err := execute(t, "--catalog", catalogDir(), "--format", "json", "reduce", "Clamp(15, 0, 10)")
	require.NoError(t, err)

	_, data := decodeBind(t, out)
	assert.Equal(t, "10:i8", data.Reduced)
}

func TestReduce_CatalogGlobalsAndOverride(t *testing.T) {
	out, err := execute(t, "--catalog", catalogDir(), "--format", "json", "bind", "rate")
	require.NoError(t, err)
	_, data := decodeBind(t, out)
	assert.Equal(t, "r8", data.Type)

	out, err = execute(t, "--catalog", catalogDir(), "--global", "rate:i4", "--format", "json", "bind", "rate")
	require.NoError(t, err)
	_, data = decodeBind(t, out)
	assert.Equal(t, "i4", data.Type)
}

func TestBind_MissingCatalog(t *testing.T) {
	out, err := execute(t, "--catalog", filepath.Join(t.TempDir(), "none"), "bind", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
}

func TestParseGlobal(t *testing.T) {
	name, typ, err := parseGlobal(" xs : i8* ")
	require.NoError(t, err)
	assert.Equal(t, "xs", name)
	assert.Equal(t, types.MustParse("i8*"), typ)
}
