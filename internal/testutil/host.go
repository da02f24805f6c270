package testutil

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/types"
)

// NewHost returns the default operator registry with the given globals,
// each declared by its type string ("i8", "s*", "{A:i8}?").
func NewHost(globals map[string]string) (*ops.Registry, error) {
	r := ops.Default()
	for _, name := range slices.Sorted(maps.Keys(globals)) {
		t, err := types.Parse(globals[name])
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		r.SetGlobal(name, t)
	}
	return r, nil
}

// MustHost is NewHost that panics on a bad type string.
func MustHost(globals map[string]string) *ops.Registry {
	r, err := NewHost(globals)
	if err != nil {
		panic(err)
	}
	return r
}
