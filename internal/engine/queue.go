package engine

import "github.com/roach88/efsmcheck/internal/ir"

// configuration is one node of the search: a control state, a variable
// valuation, and the path that reached it.
type configuration struct {
	state     string
	variables ir.VariableState
	depth     int
	trace     []string // transition ids from an initial state
}

func (c configuration) key() string {
	return c.variables.CanonicalKey(c.state)
}

// configQueue is the FIFO work queue of one exploration.
//
// The queue is unbounded; the node budget, not the queue, bounds the
// search. It is not safe for concurrent use.
type configQueue struct {
	items []configuration
}

func newConfigQueue() *configQueue {
	return &configQueue{items: make([]configuration, 0, 64)}
}

// Push adds c to the back of the queue.
func (q *configQueue) Push(c configuration) {
	q.items = append(q.items, c)
}

// Pop removes and returns the front configuration. It returns false when
// the queue is empty.
func (q *configQueue) Pop() (configuration, bool) {
	if len(q.items) == 0 {
		return configuration{}, false
	}
	c := q.items[0]

	// Zero the slot so the backing array does not retain the popped
	// valuation and trace.
	q.items[0] = configuration{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return c, true
}

// Len returns the number of queued configurations.
func (q *configQueue) Len() int {
	return len(q.items)
}
