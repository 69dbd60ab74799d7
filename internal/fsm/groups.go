package fsm

import "github.com/roach88/efsmcheck/internal/ir"

// emptyEvent is how an unlabeled event is displayed in findings.
const emptyEvent = "(empty)"

// group is the transitions sharing one (source state, event) pair.
type group struct {
	state       string
	event       string
	transitions []ir.Transition
}

func (g group) displayEvent() string {
	if g.event == "" {
		return emptyEvent
	}
	return g.event
}

// groupByStateAndEvent groups transitions by (from, event), ordered by the
// first appearance of each pair.
func groupByStateAndEvent(ts []ir.Transition) []group {
	type key struct{ state, event string }
	index := map[key]int{}
	var groups []group
	for _, t := range ts {
		k := key{t.From, t.Event}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{state: t.From, event: t.Event})
		}
		groups[i].transitions = append(groups[i].transitions, t)
	}
	return groups
}
