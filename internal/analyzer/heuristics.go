package analyzer

import (
	"fmt"
	"strings"

	"github.com/roach88/efsmcheck/internal/graph"
	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
)

// contradiction reports a guard whose conjuncts leave some variable with
// no possible value, e.g. `x > 5 && x < 6` or `v && !v`.
//
// Only top-level conjuncts of the form `variable op constant` are
// considered. Since a guard implies each of its conjuncts, a contradiction
// among a subset is a contradiction of the whole guard, so disjunctions
// elsewhere in the guard cannot produce a false positive.
func (a *analysis) contradiction(t ir.Transition, text string) *ir.Diagnostic {
	atoms, _, ok := guard.Conjuncts(text)
	if !ok || len(atoms) < 2 {
		return nil
	}
	sol := solve(atoms, a.eval.Variable, false)
	if sol.result != unsatisfiable {
		return nil
	}

	var parts []string
	for _, atom := range atoms {
		if atom.Variable == sol.culprit {
			parts = append(parts, atom.String())
		}
	}
	return &ir.Diagnostic{
		Kind:     ir.KindContradiction,
		Severity: ir.SeverityWarning,
		Code:     CodeContradiction,
		Location: ir.Location{TransitionID: t.ID, Variable: sol.culprit, Expression: text},
		Message: fmt.Sprintf("Potential contradiction in guard: no value of %s satisfies %s",
			sol.culprit, strings.Join(parts, " && ")),
		Suggestion: "Review guard logic for impossible conditions",
	}
}

// overflowHeuristics flags int assignments whose right-hand side uses an
// operator that can leave the declared range. Advisory only: the runtime
// clamps regardless.
func (a *analysis) overflowHeuristics(t ir.Transition, assignments []guard.Assignment) []ir.Diagnostic {
	var diags []ir.Diagnostic
	for _, asg := range assignments {
		v, ok := a.eval.Variable(asg.Target)
		if !ok || v.Type != ir.VarInt {
			continue
		}
		loc := ir.Location{TransitionID: t.ID, Variable: asg.Target, Expression: t.Action}
		bounds := fmt.Sprintf("Ensure operations stay within bounds [%s, %s]", bound(v.Min), bound(v.Max))
		if strings.ContainsAny(asg.Expression, "+*") {
			diags = append(diags, ir.Diagnostic{
				Kind: ir.KindOverflow, Severity: ir.SeverityInfo, Code: CodePotentialOverflow,
				Location: loc, Message: fmt.Sprintf("Action may cause overflow for variable '%s'", asg.Target),
				Suggestion: bounds,
			})
		}
		if strings.ContainsAny(asg.Expression, "-/") {
			diags = append(diags, ir.Diagnostic{
				Kind: ir.KindUnderflow, Severity: ir.SeverityInfo, Code: CodePotentialUnderflow,
				Location: loc, Message: fmt.Sprintf("Action may cause underflow for variable '%s'", asg.Target),
				Suggestion: bounds,
			})
		}
	}
	return diags
}

func bound(b *int64) string {
	if b == nil {
		return "unbounded"
	}
	return fmt.Sprintf("%d", *b)
}

// unreachableTransitions flags transitions leaving a state that no initial
// state reaches. Models without an initial state are skipped; the
// structural validator reports that case.
func unreachableTransitions(m *ir.Model) []ir.Diagnostic {
	initial := m.InitialStates()
	if len(initial) == 0 {
		return nil
	}
	edges := make([]graph.Edge[string], len(m.Transitions))
	for i, t := range m.Transitions {
		edges[i] = graph.Edge[string]{ID: t.ID, Source: t.From, Target: t.To}
	}
	adj := graph.BuildAdjacency(edges)
	reached := map[string]bool{}
	for _, s := range initial {
		for id := range graph.ReachableFrom(s.ID, adj) {
			reached[id] = true
		}
	}

	var diags []ir.Diagnostic
	for _, t := range m.Transitions {
		if reached[t.From] {
			continue
		}
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindUnreachable, Severity: ir.SeverityWarning, Code: CodeUnreachable,
			Location:   ir.Location{TransitionID: t.ID, StateID: t.From},
			Message:    fmt.Sprintf("Transition %s can never fire: state %s is unreachable", t.ID, t.From),
			Suggestion: "Connect the source state to an initial state or remove the transition",
		})
	}
	return diags
}
