package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/roach88/quill/internal/ops"
	"github.com/roach88/quill/internal/syntax"
)

// CycleWarning reports functions that can reach themselves through calls.
//
// The binder rejects a recursive expansion when it happens (B009), so a
// cycle is only an error if a call actually enters it. Functions on a
// cycle that no expression calls are harmless.
type CycleWarning struct {
	Path    []string `json:"path"` // ["A", "B", "A"]
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// callGraph maps a function path to the catalog functions its body calls.
type callGraph map[string][]string

// AnalyzeCycles builds the static call graph of the catalog's functions
// and reports each strongly connected component with more than one
// member, or with a self-call, as a warning. Calls that resolve to an
// operator are not edges: operators resolve first.
func AnalyzeCycles(c *Catalog) []CycleWarning {
	graph := buildCallGraph(c)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

func buildCallGraph(c *Catalog) callGraph {
	builtins := ops.Default()
	graph := make(callGraph)
	for _, path := range c.Paths() {
		f, _ := c.LookupFunc(path)
		callees := set.New[string](0)
		syntax.Inspect(f.Body, func(n syntax.Node) bool {
			call, ok := n.(*syntax.Call)
			if !ok {
				return true
			}
			if _, isOp := builtins.LookupOp(call.Path); isOp {
				return true
			}
			if _, isFunc := c.LookupFunc(call.Path); isFunc {
				callees.Insert(call.Path)
			}
			return true
		})
		graph[path] = callees.Slice()
		slices.Sort(graph[path])
	}
	return graph
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph callGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = set.New[string](len(graph))
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack.Insert(v)

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack.Contains(w) {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack.Remove(w)
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range slices.Sorted(maps.Keys(graph)) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph callGraph) CycleWarning {
	if len(scc) == 1 {
		return CycleWarning{
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("Function calls itself: %s → %s", scc[0], scc[0]),
			Level:   "warning",
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Mutually recursive functions: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to it.
func reconstructCyclePath(scc []string, graph callGraph) []string {
	members := set.From(scc)
	start := scc[0]
	path := []string{start}
	visited := set.New[string](len(scc))

	for current := start; ; {
		visited.Insert(current)
		next := ""
		for _, w := range graph[current] {
			if members.Contains(w) && (!visited.Contains(w) || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
