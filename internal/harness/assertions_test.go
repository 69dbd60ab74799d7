package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/analyzer"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/fsm"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/report"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func sampleContext() *AssertionContext {
	return &AssertionContext{
		Model: &ir.Model{
			Name: "sample",
			Variables: []ir.Variable{
				{Name: "x", Type: ir.VarInt, Min: ir.Int64(0), Max: ir.Int64(5), Initial: ir.IntValue(0)},
				{Name: "on", Type: ir.VarBool, Initial: ir.BoolValue(false)},
			},
		},
		Report: &report.Report{
			Analysis: analyzer.Result{Diagnostics: []ir.Diagnostic{
				{Code: "I101", Kind: ir.KindOverflow, Severity: ir.SeverityInfo},
				{Code: "I101", Kind: ir.KindOverflow, Severity: ir.SeverityInfo},
			}},
			Structure: fsm.Result{Warnings: []ir.Diagnostic{
				{Code: "W302", Kind: ir.KindUnreachable, Severity: ir.SeverityWarning},
			}},
			Exploration: &engine.Result{
				HardDeadlocks: []engine.HardDeadlock{
					{State: "S1", Variables: ir.VariableState{"x": ir.IntValue(2), "on": ir.BoolValue(true)}, Trace: []string{"t1", "t2"}},
				},
				ConditionalDeadlocks: []engine.ConditionalDeadlock{
					{State: "S2", RequiredInputs: []string{"b", "a"}, Trace: []string{"t3"}},
				},
				ReachableStates: []string{"S0", "S1", "S2"},
				Status:          engine.StatusExhaustive,
			},
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"deadlock by state", Assertion{Type: AssertDeadlock, State: "S1"}, true},
		{"deadlock variables subset", Assertion{Type: AssertDeadlock, State: "S1", Variables: map[string]any{"x": 2}}, true},
		{"deadlock variables differ", Assertion{Type: AssertDeadlock, State: "S1", Variables: map[string]any{"x": 3}}, false},
		{"deadlock variable typed differently", Assertion{Type: AssertDeadlock, State: "S1", Variables: map[string]any{"on": "true"}}, false},
		{"deadlock trace", Assertion{Type: AssertDeadlock, State: "S1", Trace: []string{"t1", "t2"}}, true},
		{"deadlock trace differs", Assertion{Type: AssertDeadlock, State: "S1", Trace: []string{"t2", "t1"}}, false},
		{"deadlock wrong state", Assertion{Type: AssertDeadlock, State: "S2"}, false},
		{"conditional any order", Assertion{Type: AssertConditionalDeadlock, State: "S2", Inputs: []string{"a", "b"}}, true},
		{"conditional missing input", Assertion{Type: AssertConditionalDeadlock, State: "S2", Inputs: []string{"a"}}, false},
		{"conditional wrong state", Assertion{Type: AssertConditionalDeadlock, State: "S1"}, false},
		{"no deadlock", Assertion{Type: AssertNoDeadlock}, false},
		{"reachable", Assertion{Type: AssertReachable, States: []string{"S0", "S2"}}, true},
		{"reachable missing", Assertion{Type: AssertReachable, States: []string{"S3"}}, false},
		{"unreachable", Assertion{Type: AssertUnreachable, States: []string{"S3"}}, true},
		{"unreachable but visited", Assertion{Type: AssertUnreachable, States: []string{"S0"}}, false},
		{"diagnostic present", Assertion{Type: AssertDiagnostic, Code: "W302"}, true},
		{"diagnostic count", Assertion{Type: AssertDiagnostic, Code: "I101", Count: intPtr(2)}, true},
		{"diagnostic count wrong", Assertion{Type: AssertDiagnostic, Code: "I101", Count: intPtr(1)}, false},
		{"diagnostic by kind", Assertion{Type: AssertDiagnostic, Kind: "unreachable"}, true},
		{"diagnostic code and kind", Assertion{Type: AssertDiagnostic, Code: "I101", Kind: "unreachable"}, false},
		{"diagnostic absent", Assertion{Type: AssertDiagnostic, Code: "E302"}, false},
		{"no diagnostic", Assertion{Type: AssertNoDiagnostic, Code: "E302"}, true},
		{"no diagnostic but present", Assertion{Type: AssertNoDiagnostic, Code: "W302"}, false},
		{"status", Assertion{Type: AssertStatus, Status: "exhaustive"}, true},
		{"status differs", Assertion{Type: AssertStatus, Status: "timed_out"}, false},
		{"verified false", Assertion{Type: AssertVerified, Verified: boolPtr(false)}, true},
		{"verified true", Assertion{Type: AssertVerified, Verified: boolPtr(true)}, false},
		{"action clamps", Assertion{Type: AssertAction, Action: "x = x + 10", From: map[string]any{"x": 1}, Expect: map[string]any{"x": 5}}, true},
		{"action from initial", Assertion{Type: AssertAction, Action: "on = !on", Expect: map[string]any{"on": true, "x": 0}}, true},
		{"action swap reads old values", Assertion{Type: AssertAction, Action: "x = 3; x = x + 1", Expect: map[string]any{"x": 1}}, true},
		{"action mismatch", Assertion{Type: AssertAction, Action: "x = 4", Expect: map[string]any{"x": 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluate(tt.assertion, sampleContext())
			if tt.pass {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := evaluate(Assertion{Type: AssertStatus, Status: "timed_out"}, sampleContext())
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Assertion failed: status\n  Expected: timed_out\n  Actual: exhaustive", ae.Error())
}

func TestEvaluateAssertions_IndexesFailures(t *testing.T) {
	errs := EvaluateAssertions([]Assertion{
		{Type: AssertStatus, Status: "exhaustive"},
		{Type: AssertReachable, States: []string{"S9"}},
	}, sampleContext())

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "assertions[1]: Assertion failed: reachable")
	assert.Contains(t, errs[0], "[S9] unreachable")
}

func TestEvaluate_BadVariableValue(t *testing.T) {
	err := evaluate(Assertion{Type: AssertDeadlock, State: "S1", Variables: map[string]any{"x": 1.5}}, sampleContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable x")
}
