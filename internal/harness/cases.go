package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a file of expression cases sharing one environment.
type Suite struct {
	// Name uniquely identifies this suite. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this suite checks.
	Description string `yaml:"description"`

	// Catalog is an optional directory of CUE user functions, relative to
	// the suite file.
	Catalog string `yaml:"catalog,omitempty"`

	// Globals declares ambient globals by type string.
	Globals map[string]string `yaml:"globals,omitempty"`

	// AllowVolatile and AllowProcedures relax the binder's purity checks.
	AllowVolatile   bool `yaml:"allow_volatile,omitempty"`
	AllowProcedures bool `yaml:"allow_procedures,omitempty"`

	// SessionID is the fixed binding session id. Defaults to
	// testutil.DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one expression to bind and reduce.
type Case struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`

	// Expect is checked against the outcome. If nil, the case only has to
	// parse.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a case. Empty strings are not checked.
// Diagnostics and Warnings are always checked: listing none asserts none.
type Expect struct {
	// Type is the bound type in types.DType string form.
	Type string `yaml:"type,omitempty"`

	// Bound and Reduced are ir.Dump renderings.
	Bound   string `yaml:"bound,omitempty"`
	Reduced string `yaml:"reduced,omitempty"`

	// Diagnostics are binder codes (B004) in report order.
	Diagnostics []string `yaml:"diagnostics,omitempty"`

	// Warnings are reducer codes (R001) in report order.
	Warnings []string `yaml:"warnings,omitempty"`
}

// LoadCases reads and parses a suite YAML file. The catalog path is
// resolved relative to the file. Returns an error if the file doesn't
// exist, is malformed, contains unknown fields or is missing required
// fields.
func LoadCases(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	// Strict field validation catches typos like "expected:" vs "expect:".
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if suite.Catalog != "" && !filepath.IsAbs(suite.Catalog) {
		suite.Catalog = filepath.Join(filepath.Dir(path), suite.Catalog)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	if s.Catalog != "" {
		if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
			return fmt.Errorf("catalog directory not found: %s", s.Catalog)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true
		if c.Expr == "" {
			return fmt.Errorf("cases[%d]: expr is required", i)
		}
	}
	return nil
}
