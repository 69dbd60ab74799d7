package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/efsmcheck/internal/ir"
)

// GoldenDir is where golden snapshots live, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders the exploration outcome of a result as canonical JSON.
// The run id, timestamps, model hash, and timings are left out so the
// bytes only change when behavior does.
func Snapshot(name string, result *Result) ([]byte, error) {
	x := result.Report.Exploration

	hard := make([]any, 0, len(x.HardDeadlocks))
	for _, d := range x.HardDeadlocks {
		hard = append(hard, map[string]any{
			"state":     d.State,
			"variables": d.Variables,
			"trace":     stringList(d.Trace),
		})
	}
	conditional := make([]any, 0, len(x.ConditionalDeadlocks))
	for _, d := range x.ConditionalDeadlocks {
		conditional = append(conditional, map[string]any{
			"state":  d.State,
			"inputs": stringList(d.RequiredInputs),
			"trace":  stringList(d.Trace),
		})
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario":              name,
		"status":                string(x.Status),
		"verified":              x.Verified(),
		"reachable_states":      stringList(x.ReachableStates),
		"fired_transitions":     stringList(x.FiredTransitions),
		"hard_deadlocks":        hard,
		"conditional_deadlocks": conditional,
	})
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
