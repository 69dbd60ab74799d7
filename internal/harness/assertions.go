package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure, in assertion order.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	x := actx.Report.Exploration
	switch a.Type {
	case AssertDeadlock:
		return assertDeadlock(x.HardDeadlocks, a)
	case AssertConditionalDeadlock:
		return assertConditionalDeadlock(x.ConditionalDeadlocks, a)
	case AssertNoDeadlock:
		return assertNoDeadlock(x)
	case AssertReachable:
		return assertReachable(x.ReachableStates, a.States, true)
	case AssertUnreachable:
		return assertReachable(x.ReachableStates, a.States, false)
	case AssertDiagnostic:
		return assertDiagnostic(actx.Report.Diagnostics(), a)
	case AssertNoDiagnostic:
		zero := 0
		a.Count = &zero
		return assertDiagnostic(actx.Report.Diagnostics(), a)
	case AssertStatus:
		if string(x.Status) != a.Status {
			return &AssertionError{Type: a.Type, Expected: a.Status, Actual: string(x.Status)}
		}
		return nil
	case AssertVerified:
		if x.Verified() != *a.Verified {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("verified=%t", *a.Verified),
				Actual:   fmt.Sprintf("verified=%t (status %s, %d hard, %d conditional)", x.Verified(), x.Status, len(x.HardDeadlocks), len(x.ConditionalDeadlocks)),
			}
		}
		return nil
	case AssertAction:
		return assertAction(actx.Model, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertDeadlock(found []engine.HardDeadlock, a Assertion) error {
	want, err := toVariableState(a.Variables)
	if err != nil {
		return err
	}
	var seen []string
	for _, d := range found {
		seen = append(seen, fmt.Sprintf("%s %s", d.State, d.Variables.String()))
		if d.State != a.State || !subsetMatch(d.Variables, want) {
			continue
		}
		if a.Trace != nil && !slices.Equal(d.Trace, a.Trace) {
			continue
		}
		return nil
	}
	expected := a.State
	if len(want) > 0 {
		expected += " " + want.String()
	}
	if a.Trace != nil {
		expected += " via " + strings.Join(a.Trace, ", ")
	}
	return &AssertionError{Type: a.Type, Expected: "hard deadlock at " + expected, Actual: describeFound(seen)}
}

func assertConditionalDeadlock(found []engine.ConditionalDeadlock, a Assertion) error {
	var seen []string
	for _, d := range found {
		seen = append(seen, fmt.Sprintf("%s waiting on [%s]", d.State, strings.Join(d.RequiredInputs, ", ")))
		if d.State != a.State {
			continue
		}
		if a.Inputs != nil && !sameSet(d.RequiredInputs, a.Inputs) {
			continue
		}
		return nil
	}
	expected := a.State
	if a.Inputs != nil {
		expected += fmt.Sprintf(" waiting on [%s]", strings.Join(a.Inputs, ", "))
	}
	return &AssertionError{Type: a.Type, Expected: "conditional deadlock at " + expected, Actual: describeFound(seen)}
}

func assertNoDeadlock(x *engine.Result) error {
	if !x.HasDeadlocks() {
		return nil
	}
	var seen []string
	for _, d := range x.HardDeadlocks {
		seen = append(seen, "hard at "+d.State)
	}
	for _, d := range x.ConditionalDeadlocks {
		seen = append(seen, "conditional at "+d.State)
	}
	return &AssertionError{Type: AssertNoDeadlock, Expected: "no deadlocks", Actual: strings.Join(seen, "; ")}
}

func assertReachable(reachable, states []string, want bool) error {
	var wrong []string
	for _, s := range states {
		if slices.Contains(reachable, s) != want {
			wrong = append(wrong, s)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	typ, verb := AssertReachable, "unreachable"
	if !want {
		typ, verb = AssertUnreachable, "reachable"
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("states [%s] %s", strings.Join(states, ", "), typ),
		Actual:   fmt.Sprintf("[%s] %s (reachable: [%s])", strings.Join(wrong, ", "), verb, strings.Join(reachable, ", ")),
	}
}

func assertDiagnostic(diags []ir.Diagnostic, a Assertion) error {
	count := 0
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
		if a.Code != "" && d.Code != a.Code {
			continue
		}
		if a.Kind != "" && string(d.Kind) != a.Kind {
			continue
		}
		count++
	}

	selector := a.Code
	if a.Kind != "" {
		selector = strings.TrimSpace(selector + " " + a.Kind)
	}
	actual := fmt.Sprintf("%d matching (reported: [%s])", count, strings.Join(codes, ", "))
	switch {
	case a.Count == nil && count == 0:
		return &AssertionError{Type: a.Type, Expected: "at least one " + selector, Actual: actual}
	case a.Count != nil && count != *a.Count:
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d %s", *a.Count, selector), Actual: actual}
	}
	return nil
}

// assertAction executes the action over the model's initial valuation with
// From applied on top.
func assertAction(m *ir.Model, a Assertion) error {
	from, err := toVariableState(a.From)
	if err != nil {
		return err
	}
	want, err := toVariableState(a.Expect)
	if err != nil {
		return err
	}

	start := guard.InitialVariableState(m.Variables)
	for name, v := range from {
		start[name] = v
	}
	eval := guard.New(m.Variables, guard.WithFields(m.Fields))
	out := eval.ExecuteAction(a.Action, start)
	if subsetMatch(out.State, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAction,
		Expected: fmt.Sprintf("%s from %s gives %s", a.Action, start.String(), want.String()),
		Actual:   out.State.String(),
	}
}

// toVariableState converts scenario YAML values into typed values: integers
// become int, booleans bool, and strings enum.
func toVariableState(raw map[string]any) (ir.VariableState, error) {
	state := make(ir.VariableState, len(raw))
	for name, v := range raw {
		val, err := ir.ValueFromAny(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		state[name] = val
	}
	return state, nil
}

// subsetMatch reports whether every variable in want has the same value in
// got.
func subsetMatch(got, want ir.VariableState) bool {
	for name, w := range want {
		g, ok := got[name]
		if !ok || g != w {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	sort.Strings(x)
	sort.Strings(y)
	return slices.Equal(x, y)
}

func describeFound(seen []string) string {
	if len(seen) == 0 {
		return "none found"
	}
	return "found " + strings.Join(seen, "; ")
}
