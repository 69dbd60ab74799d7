package engine

// visitedSet records the canonical keys of configurations already expanded.
//
// A successor whose key is already present closes an executable cycle:
// the same control state is reachable again with the same valuation.
// That is informational, not an error.
type visitedSet struct {
	keys   map[string]bool
	states map[string]bool
}

func newVisitedSet() *visitedSet {
	return &visitedSet{
		keys:   make(map[string]bool),
		states: make(map[string]bool),
	}
}

// Seen reports whether the configuration has been recorded.
func (v *visitedSet) Seen(c configuration) bool {
	return v.keys[c.key()]
}

// Record marks the configuration as visited.
func (v *visitedSet) Record(c configuration) {
	v.keys[c.key()] = true
	v.states[c.state] = true
}

// Len returns the number of distinct configurations recorded.
func (v *visitedSet) Len() int {
	return len(v.keys)
}

// HasState reports whether any configuration of the state was recorded.
func (v *visitedSet) HasState(id string) bool {
	return v.states[id]
}
