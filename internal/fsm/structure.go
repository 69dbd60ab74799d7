package fsm

import (
	"github.com/roach88/efsmcheck/internal/graph"
	"github.com/roach88/efsmcheck/internal/ir"
)

// StateRef names a state in a finding.
type StateRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func refOf(s ir.State) StateRef {
	return StateRef{ID: s.ID, Label: s.DisplayName()}
}

func edgesOf(m *ir.Model) []graph.Edge[string] {
	edges := make([]graph.Edge[string], len(m.Transitions))
	for i, t := range m.Transitions {
		edges[i] = graph.Edge[string]{ID: t.ID, Source: t.From, Target: t.To}
	}
	return edges
}

// FindDeadStates returns the non-final states with no outgoing transition,
// in authored order.
func FindDeadStates(m *ir.Model) []StateRef {
	hasOutgoing := make(map[string]bool, len(m.States))
	for _, t := range m.Transitions {
		hasOutgoing[t.From] = true
	}
	var dead []StateRef
	for _, s := range m.States {
		if !hasOutgoing[s.ID] && !s.Final {
			dead = append(dead, refOf(s))
		}
	}
	return dead
}

// FindUnreachableStates returns the states no initial state reaches. A
// model without an initial state has every state unreachable.
func FindUnreachableStates(m *ir.Model) []StateRef {
	reached := reachableStates(m)
	var out []StateRef
	for _, s := range m.States {
		if !reached[s.ID] {
			out = append(out, refOf(s))
		}
	}
	return out
}

func reachableStates(m *ir.Model) map[string]bool {
	adj := graph.BuildAdjacency(edgesOf(m))
	reached := map[string]bool{}
	for _, s := range m.InitialStates() {
		for id := range graph.ReachableFrom(s.ID, adj) {
			reached[id] = true
		}
	}
	return reached
}

// Metrics counts the model's elements.
type Metrics struct {
	TotalStates      int `json:"total_states"`
	TotalTransitions int `json:"total_transitions"`
	InitialStates    int `json:"initial_states"`
	FinalStates      int `json:"final_states"`
}

// ComputeMetrics counts states, transitions, and initial and final states.
func ComputeMetrics(m *ir.Model) Metrics {
	met := Metrics{TotalStates: len(m.States), TotalTransitions: len(m.Transitions)}
	for _, s := range m.States {
		if s.Initial {
			met.InitialStates++
		}
		if s.Final {
			met.FinalStates++
		}
	}
	return met
}

// Properties summarizes the graph-level properties of a model.
//
// MaxDepth is the deepest simple path found from any initial state by
// graph.LongestPath, which is a heuristic and may underestimate on cyclic
// graphs.
type Properties struct {
	HasInitialState     bool `json:"has_initial_state"`
	HasFinalState       bool `json:"has_final_state"`
	AllStatesReachable  bool `json:"all_states_reachable"`
	IsDeterministic     bool `json:"is_deterministic"`
	IsComplete          bool `json:"is_complete"`
	CompletenessChecked bool `json:"completeness_checked"`
	IsStronglyConnected bool `json:"is_strongly_connected"`
	HasCycles           bool `json:"has_cycles"`
	HasSelfLoops        bool `json:"has_self_loops"`
	MaxDepth            int  `json:"max_depth"`
}

// graphProperties fills the properties that depend only on the graph.
func graphProperties(m *ir.Model, met Metrics, unreachable []StateRef) Properties {
	edges := edgesOf(m)
	adj := graph.BuildAdjacency(edges)
	nodes := m.StateIDs()

	p := Properties{
		HasInitialState:     met.InitialStates > 0,
		HasFinalState:       met.FinalStates > 0,
		AllStatesReachable:  len(unreachable) == 0,
		IsStronglyConnected: graph.IsStronglyConnected(nodes, adj),
		HasCycles:           graph.HasCycle(nodes, adj),
		HasSelfLoops:        graph.CountSelfLoops(edges) > 0,
	}
	for _, s := range m.InitialStates() {
		p.MaxDepth = max(p.MaxDepth, graph.LongestPath(s.ID, adj))
	}
	return p
}
