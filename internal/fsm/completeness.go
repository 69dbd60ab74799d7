package fsm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// CompletenessIssue is a (state, event) group whose guards leave some
// variable valuation uncovered, which is a potential local deadlock.
type CompletenessIssue struct {
	State    string `json:"state"`
	Event    string `json:"event"`
	GapModel string `json:"gap_model,omitempty"`
	Assumed  bool   `json:"assumed,omitempty"`
}

// CheckCompleteness asks the checker once per (state, event) group whether
// the group's guards cover every valuation. It returns nil when checker is
// nil.
func CheckCompleteness(ctx context.Context, m *ir.Model, checker *smt.Checker) []CompletenessIssue {
	if checker == nil {
		return nil
	}
	groups := groupByStateAndEvent(m.Transitions)
	verdicts := make([]smt.CompletenessVerdict, len(groups))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(checker.Concurrency())
	for i, g := range groups {
		guards := make([]smt.Guard, len(g.transitions))
		for j, t := range g.transitions {
			guards[j] = smt.GuardFromIR(t.Guard)
		}
		eg.Go(func() error {
			verdicts[i] = checker.GuardsComplete(gctx, guards, g.state, g.event, m.Variables)
			return nil
		})
	}
	_ = eg.Wait()

	var issues []CompletenessIssue
	for i, v := range verdicts {
		if v.Complete {
			continue
		}
		issues = append(issues, CompletenessIssue{
			State:    groups[i].state,
			Event:    groups[i].displayEvent(),
			GapModel: v.GapModel,
			Assumed:  v.Assumed,
		})
	}
	return issues
}
