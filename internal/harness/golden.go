package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the stable part of a result: per case the expression,
// its type, the reduced tree and the diagnostic and warning codes.
// Messages and the bound tree are left out.
func Snapshot(r *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "suite: %s\n", r.Suite)
	for _, cr := range r.Cases {
		fmt.Fprintf(&sb, "\n[%d] %s\n", cr.Seq, cr.Name)
		fmt.Fprintf(&sb, "    expr: %s\n", cr.Expr)
		fmt.Fprintf(&sb, "    type: %s\n", orDash(cr.Type))
		fmt.Fprintf(&sb, "    reduced: %s\n", orDash(cr.Reduced))
		fmt.Fprintf(&sb, "    diagnostics: %s\n", orDash(strings.Join(cr.Diagnostics, " ")))
		fmt.Fprintf(&sb, "    warnings: %s\n", orDash(strings.Join(cr.Warnings, " ")))
	}
	return []byte(sb.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunWithGolden runs a suite and compares its snapshot against the golden
// file testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(suite)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, suite.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against the
// golden file named name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
