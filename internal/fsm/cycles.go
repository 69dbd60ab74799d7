package fsm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/efsmcheck/internal/graph"
	"github.com/roach88/efsmcheck/internal/ir"
)

// Cycle is one cycle in the state graph.
//
// Cycles are informational: loops back to an idle state are how most
// protocols are built.
type Cycle struct {
	Path    []string    `json:"path"` // e.g. ["S0", "S1", "S0"]
	Message string      `json:"message"`
	Level   ir.Severity `json:"level"`
}

// AnalyzeCycles reports one concrete cycle per strongly connected component
// of more than one state, then one per state with a self-loop.
//
// Components are ordered by their earliest authored state, and each path
// starts and ends at that state. An acyclic graph yields nil.
func AnalyzeCycles(m *ir.Model) []Cycle {
	nodes := m.StateIDs()
	order := make(map[string]int, len(nodes))
	for i, id := range nodes {
		order[id] = i
	}

	// Self-loops are reported on their own; paths through larger
	// components should not collapse onto them.
	var edges []graph.Edge[string]
	for _, e := range edgesOf(m) {
		if e.Source != e.Target {
			edges = append(edges, e)
		}
	}
	adj := graph.BuildAdjacency(edges)

	var components [][]string
	for _, scc := range graph.StronglyConnectedComponents(nodes, adj) {
		if len(scc) < 2 {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return order[a] - order[b] })
		components = append(components, scc)
	}
	slices.SortFunc(components, func(a, b []string) int { return order[a[0]] - order[b[0]] })

	var cycles []Cycle
	for _, scc := range components {
		path := graph.CyclePath(scc, adj)
		cycles = append(cycles, Cycle{
			Path:    path,
			Message: fmt.Sprintf("Cycle detected: %s", strings.Join(path, " → ")),
			Level:   ir.SeverityInfo,
		})
	}

	full := graph.BuildAdjacency(edgesOf(m))
	for _, id := range nodes {
		if graph.HasSelfLoop(id, full) {
			cycles = append(cycles, Cycle{
				Path:    []string{id, id},
				Message: fmt.Sprintf("Self-loop on state %s: %s → %s", id, id, id),
				Level:   ir.SeverityInfo,
			})
		}
	}
	return cycles
}
