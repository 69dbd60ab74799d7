package engine

// nodeBudget counts dequeued configurations against Limits.MaxNodes.
//
// Every dequeue is charged, including configurations skipped as already
// visited, so the budget also bounds the work spent on duplicates.
type nodeBudget struct {
	max   int
	spent int
}

func newNodeBudget(limit int) *nodeBudget {
	return &nodeBudget{max: limit}
}

// Check reports a *LimitError once the budget is used up. It does not
// charge anything.
func (b *nodeBudget) Check() error {
	if b.spent >= b.max {
		return &LimitError{
			Status:  StatusNodeLimited,
			Message: "node budget exhausted",
			Used:    b.spent,
			Limit:   b.max,
		}
	}
	return nil
}

// Spend charges one node.
func (b *nodeBudget) Spend() {
	b.spent++
}

// Spent returns the number of nodes charged so far.
func (b *nodeBudget) Spent() int {
	return b.spent
}
