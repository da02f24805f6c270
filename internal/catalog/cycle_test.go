package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(path, body string, params ...string) FuncDecl {
	d := FuncDecl{Path: path, Body: body}
	for _, p := range params {
		d.Params = append(d.Params, ParamDecl{Name: p})
	}
	return d
}

// TestAnalyzeCycles_Empty tests that an empty catalog produces no warnings.
func TestAnalyzeCycles_Empty(t *testing.T) {
	warnings := AnalyzeCycles(New())
	assert.Empty(t, warnings, "no functions should produce no warnings")
}

// TestAnalyzeCycles_DAG tests that layered calls produce no warnings.
func TestAnalyzeCycles_DAG(t *testing.T) {
	c := New(
		fn("Square", "v * v", "v"),
		fn("Norm", "Sqrt(Square(a) + Square(b))", "a", "b"),
		fn("Dist", "Norm(x2 - x1, y2 - y1)", "x1", "y1", "x2", "y2"),
	)
	assert.Empty(t, AnalyzeCycles(c), "DAG should produce no cycle warnings")
}

func TestAnalyzeCycles_SelfCall(t *testing.T) {
	c := New(fn("Loop", "Loop(n) + 1", "n"))

	warnings := AnalyzeCycles(c)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Loop", "Loop"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "calls itself")
}

func TestAnalyzeCycles_Mutual(t *testing.T) {
	c := New(
		fn("Even", "If(n = 0, true, Odd(n - 1))", "n"),
		fn("Odd", "If(n = 0, false, Even(n - 1))", "n"),
		fn("Half", "Div(n, 2)", "n"),
	)

	warnings := AnalyzeCycles(c)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Even", "Odd", "Even"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "Even → Odd → Even")
}

func TestAnalyzeCycles_ThreeNodeCycleAndSeparateSelfLoop(t *testing.T) {
	c := New(
		fn("A", "B()"),
		fn("B", "C()"),
		fn("C", "A()"),
		fn("D", "D() + A()"),
	)

	warnings := AnalyzeCycles(c)
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"A", "B", "C", "A"}, warnings[0].Path)
	assert.Equal(t, []string{"D", "D"}, warnings[1].Path)
}

func TestAnalyzeCycles_OperatorsAreNotEdges(t *testing.T) {
	// Abs resolves to the operator even when a function shares the path.
	c := New(
		fn("Abs", "Abs(x)", "x"),
		fn("Pipe", "x->Len()", "x"),
	)
	assert.Empty(t, AnalyzeCycles(c))
}

func TestAnalyzeCycles_UnknownCallsIgnored(t *testing.T) {
	c := New(fn("F", "Nowhere(1)"))
	assert.Empty(t, AnalyzeCycles(c))
}
