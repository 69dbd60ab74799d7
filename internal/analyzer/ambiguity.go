package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// Overlap is the tri-state answer to "can both guards hold at once".
type Overlap string

const (
	Disjoint    Overlap = "disjoint"
	Overlapping Overlap = "overlapping"
	Unknown     Overlap = "unknown"
)

// competingPair is two transitions leaving the same state on the same event.
type competingPair struct {
	first, second ir.Transition
	overlap       Overlap
	witness       string
	assumed       bool
}

// GuardOverlap decides locally whether guards a and b can both hold. It
// answers Disjoint only when their conjuncts provably exclude each other
// within the declared domains, and Overlapping only when both guards are
// pure conjunctions the local solver decides exactly.
func GuardOverlap(a, b string, eval *guard.Evaluator) Overlap {
	atomsA, completeA, okA := guard.Conjuncts(orTrue(a))
	atomsB, completeB, okB := guard.Conjuncts(orTrue(b))
	if !okA || !okB {
		return Unknown
	}
	combined := append(append([]guard.Atom{}, atomsA...), atomsB...)
	sol := solve(combined, eval.Variable, true)
	switch {
	case sol.result == unsatisfiable:
		return Disjoint
	case sol.result == satisfiable && completeA && completeB:
		return Overlapping
	default:
		return Unknown
	}
}

func orTrue(s string) string {
	if isBlank(s) {
		return "true"
	}
	return s
}

// checkAmbiguity compares every pair of transitions sharing a source state
// and a non-empty event. Pairs the local test leaves Unknown go to the
// solver when one is configured; anything not Disjoint is reported.
func (a *analysis) checkAmbiguity(ctx context.Context) []ir.Diagnostic {
	type groupKey struct{ from, event string }
	var keys []groupKey
	groups := map[groupKey][]ir.Transition{}
	for _, t := range a.model.Transitions {
		if t.Event == "" {
			continue
		}
		k := groupKey{t.From, t.Event}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}

	var pairs []*competingPair
	for _, k := range keys {
		ts := groups[k]
		for i := 0; i < len(ts); i++ {
			for j := i + 1; j < len(ts); j++ {
				p := &competingPair{first: ts[i], second: ts[j]}
				p.overlap = GuardOverlap(a.guardText(ts[i]), a.guardText(ts[j]), a.eval)
				pairs = append(pairs, p)
			}
		}
	}

	if a.opts.checker != nil {
		a.resolveWithSolver(ctx, pairs)
	}

	var diags []ir.Diagnostic
	for _, p := range pairs {
		if p.overlap == Disjoint {
			continue
		}
		diags = append(diags, ambiguityDiagnostic(p, a.guardText(p.second)))
	}
	return diags
}

func (a *analysis) guardText(t ir.Transition) string {
	return guard.Text(t.Guard, a.model.Fields)
}

// resolveWithSolver asks the collaborator about every Unknown pair,
// concurrently. Each goroutine writes only its own pair.
func (a *analysis) resolveWithSolver(ctx context.Context, pairs []*competingPair) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.checker.Concurrency())
	for _, p := range pairs {
		if p.overlap != Unknown {
			continue
		}
		g.Go(func() error {
			v := a.opts.checker.GuardsOverlap(gctx, smt.GuardFromIR(p.first.Guard), smt.GuardFromIR(p.second.Guard))
			p.assumed = v.Assumed
			p.witness = v.Model
			if v.Satisfiable {
				p.overlap = Overlapping
			} else {
				p.overlap = Disjoint
			}
			return nil
		})
	}
	_ = g.Wait()
}

func ambiguityDiagnostic(p *competingPair, expr string) ir.Diagnostic {
	var msg string
	switch p.overlap {
	case Overlapping:
		msg = fmt.Sprintf("Transitions %s and %s have overlapping guards for event '%s'", p.first.ID, p.second.ID, p.first.Event)
		if p.witness != "" {
			msg += fmt.Sprintf(" (e.g. %s)", p.witness)
		}
	default:
		msg = fmt.Sprintf("Transitions %s and %s may have overlapping guards for event '%s'", p.first.ID, p.second.ID, p.first.Event)
	}
	if p.assumed {
		msg += "; solver unavailable, verdict assumed"
	}
	return ir.Diagnostic{
		Kind:       ir.KindAmbiguous,
		Severity:   ir.SeverityWarning,
		Code:       CodeAmbiguous,
		Location:   ir.Location{TransitionID: p.second.ID, StateID: p.second.From, Expression: expr},
		Message:    msg,
		Suggestion: "Ensure guards are mutually exclusive or prioritize transitions",
	}
}
