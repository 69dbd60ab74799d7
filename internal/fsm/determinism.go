package fsm

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// DeterminismIssue is a (state, event) group with two transitions whose
// guards can hold at the same time.
type DeterminismIssue struct {
	State          string    `json:"state"`
	Event          string    `json:"event"`
	Targets        []string  `json:"targets"`
	Transitions    []string  `json:"transitions"`
	Guard1         smt.Guard `json:"guard1"`
	Guard2         smt.Guard `json:"guard2"`
	CounterExample string    `json:"counter_example,omitempty"`
	// Assumed marks a verdict taken from the checker's fallback policy.
	Assumed bool `json:"assumed,omitempty"`
	// Local marks an issue found by the text comparison used when no
	// checker is available.
	Local bool `json:"local,omitempty"`
}

type pairCheck struct {
	group   int
	a, b    ir.Transition
	verdict smt.Verdict
}

// CheckDeterminism reports each (state, event) group holding a pair of
// transitions whose guards are simultaneously satisfiable. Each group is
// reported at most once, for its first overlapping pair in authored order.
//
// With a nil checker the check is local: two guards overlap when their
// normalized text is identical and they lead to different targets. This
// misses every overlap that differs textually, so the local result is a
// lower bound on the true set of issues.
func CheckDeterminism(ctx context.Context, m *ir.Model, checker *smt.Checker) []DeterminismIssue {
	groups := groupByStateAndEvent(m.Transitions)
	if checker == nil {
		return localDeterminism(m, groups)
	}

	var checks []*pairCheck
	for gi, g := range groups {
		ts := g.transitions
		for i := 0; i < len(ts); i++ {
			for j := i + 1; j < len(ts); j++ {
				checks = append(checks, &pairCheck{group: gi, a: ts[i], b: ts[j]})
			}
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(checker.Concurrency())
	for _, c := range checks {
		eg.Go(func() error {
			c.verdict = checker.GuardsOverlap(gctx, smt.GuardFromIR(c.a.Guard), smt.GuardFromIR(c.b.Guard))
			return nil
		})
	}
	_ = eg.Wait()

	reported := map[int]bool{}
	var issues []DeterminismIssue
	for _, c := range checks {
		if reported[c.group] || !c.verdict.Satisfiable {
			continue
		}
		reported[c.group] = true
		issue := newIssue(groups[c.group], c.a, c.b)
		issue.CounterExample = c.verdict.Model
		issue.Assumed = c.verdict.Assumed
		issues = append(issues, issue)
	}
	return issues
}

func localDeterminism(m *ir.Model, groups []group) []DeterminismIssue {
	var issues []DeterminismIssue
	for _, g := range groups {
		ts := g.transitions
	pairs:
		for i := 0; i < len(ts); i++ {
			for j := i + 1; j < len(ts); j++ {
				if ts[i].To == ts[j].To {
					continue
				}
				if signature(ts[i].Guard, m.Fields) != signature(ts[j].Guard, m.Fields) {
					continue
				}
				issue := newIssue(g, ts[i], ts[j])
				issue.Local = true
				issues = append(issues, issue)
				break pairs
			}
		}
	}
	return issues
}

// signature is the guard text lowercased with whitespace collapsed. An
// always-true guard has the empty signature.
func signature(g ir.Guard, fields []ir.Field) string {
	return strings.Join(strings.Fields(strings.ToLower(guard.Text(g, fields))), " ")
}

func newIssue(g group, a, b ir.Transition) DeterminismIssue {
	return DeterminismIssue{
		State:       g.state,
		Event:       g.displayEvent(),
		Targets:     []string{a.To, b.To},
		Transitions: []string{a.ID, b.ID},
		Guard1:      smt.GuardFromIR(a.Guard),
		Guard2:      smt.GuardFromIR(b.Guard),
	}
}
