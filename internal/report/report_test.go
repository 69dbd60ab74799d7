package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/analyzer"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/fsm"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner() *Runner {
	return New(
		WithIDs(testutil.NewFixedRunID(testutil.DefaultRunID)),
		WithClock(testutil.NewFakeClock()),
		WithLogger(quietLogger()),
	)
}

// pingPongModel runs out of budget after two round trips and deadlocks in
// S0 with x = 2. S2 is never entered.
func pingPongModel() *ir.Model {
	return &ir.Model{
		Name: "ping-pong",
		States: []ir.State{
			{ID: "S0", Initial: true},
			{ID: "S1"},
			{ID: "S2", Label: "Done", Final: true},
		},
		Events: []ir.Event{
			{Name: "ping", Kind: ir.EventInternal},
			{Name: "pong", Kind: ir.EventInternal},
		},
		Variables: []ir.Variable{
			{Name: "x", Type: ir.VarInt, Min: ir.Int64(0), Max: ir.Int64(2), Initial: ir.IntValue(0)},
		},
		Transitions: []ir.Transition{
			{ID: "t1", From: "S0", To: "S1", Event: "ping", Guard: ir.Guard{Kind: ir.GuardManual, Expression: "x < 2"}, Action: "x = x + 1"},
			{ID: "t2", From: "S1", To: "S0", Event: "pong", Guard: ir.Guard{Kind: ir.GuardAlwaysTrue}},
		},
	}
}

func TestRunFindsDeadlock(t *testing.T) {
	rep, err := newTestRunner().Run(context.Background(), pingPongModel())
	require.NoError(t, err)

	assert.Equal(t, testutil.DefaultRunID, rep.RunID)
	assert.Equal(t, testutil.Epoch, rep.CreatedAt)
	assert.Equal(t, "ping-pong", rep.Model)
	assert.Len(t, rep.ModelHash, 64)

	require.Len(t, rep.Exploration.HardDeadlocks, 1)
	d := rep.Exploration.HardDeadlocks[0]
	assert.Equal(t, "S0", d.State)
	assert.Equal(t, []string{"t1", "t2", "t1", "t2"}, d.Trace)
	assert.Equal(t, ir.IntValue(2), d.Variables["x"])

	assert.Equal(t, 0, rep.Summary.Errors)
	assert.Equal(t, 1, rep.Summary.HardDeadlocks)
	assert.Equal(t, engine.StatusExhaustive, rep.Summary.Status)
	assert.False(t, rep.Summary.Verified)
	assert.False(t, rep.Summary.Passed)
	assert.True(t, rep.HasFindings())

	var codes []string
	for _, w := range rep.Structure.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, fsm.CodeUnreachableState)
}

func TestRunPassingModel(t *testing.T) {
	m := &ir.Model{
		Name: "switch",
		States: []ir.State{
			{ID: "off", Initial: true},
			{ID: "on", Final: true},
		},
		Events:      []ir.Event{{Name: "flip", Kind: ir.EventInternal}},
		Transitions: []ir.Transition{{ID: "t1", From: "off", To: "on", Event: "flip", Guard: ir.Guard{Kind: ir.GuardAlwaysTrue}}},
	}
	rep, err := newTestRunner().Run(context.Background(), m)
	require.NoError(t, err)

	assert.True(t, rep.Summary.Passed)
	assert.True(t, rep.Summary.Verified)
	assert.False(t, rep.HasFindings())
	assert.True(t, rep.Structure.Valid)
	assert.Equal(t, []string{"off", "on"}, rep.Exploration.ReachableStates)
}

func TestRunHashIsStable(t *testing.T) {
	r := newTestRunner()
	a, err := r.Run(context.Background(), pingPongModel())
	require.NoError(t, err)
	b, err := r.Run(context.Background(), pingPongModel())
	require.NoError(t, err)
	assert.Equal(t, a.ModelHash, b.ModelHash)

	changed := pingPongModel()
	changed.Transitions[1].Action = "x = 0"
	c, err := r.Run(context.Background(), changed)
	require.NoError(t, err)
	assert.NotEqual(t, a.ModelHash, c.ModelHash)
}

func TestRunnerPartialChecks(t *testing.T) {
	r := New(WithLogger(quietLogger()), WithLimits(engine.Limits{MaxDepth: 2, MaxNodes: 100, Timeout: engine.DefaultTimeout}))
	m := pingPongModel()

	x := r.Explore(context.Background(), m)
	assert.Equal(t, engine.StatusDepthLimited, x.Status)
	assert.Empty(t, x.HardDeadlocks)

	s := r.Validate(context.Background(), m)
	assert.True(t, s.Valid)

	a := r.Analyze(context.Background(), m)
	assert.False(t, a.HasErrors())
}

// sampleReport is a hand-built report for rendering tests.
func sampleReport() *Report {
	return &Report{
		RunID:     testutil.DefaultRunID,
		Model:     "door",
		ModelHash: "0123456789abcdef0123",
		CreatedAt: testutil.Epoch,
		Summary: Summary{
			Errors:        1,
			Warnings:      1,
			HardDeadlocks: 1,
			Status:        engine.StatusExhaustive,
		},
		Analysis: analyzer.Result{
			Diagnostics: []ir.Diagnostic{{
				Kind:       ir.KindUndefinedVariable,
				Severity:   ir.SeverityError,
				Code:       "E201",
				Location:   ir.Location{TransitionID: "t1"},
				Message:    "Undefined variable: y",
				Suggestion: `Define variable "y" in the model's variables`,
			}},
		},
		Structure: fsm.Result{
			Valid: true,
			Warnings: []ir.Diagnostic{{
				Kind:     ir.KindUnreachable,
				Severity: ir.SeverityWarning,
				Code:     "W302",
				Location: ir.Location{StateID: "locked"},
				Message:  "State Locked is unreachable",
			}},
			Properties: fsm.Properties{
				HasInitialState: true,
				HasFinalState:   true,
				IsDeterministic: true,
				HasCycles:       true,
				MaxDepth:        1,
			},
			Metrics: fsm.Metrics{TotalStates: 3, TotalTransitions: 2, InitialStates: 1, FinalStates: 1},
			Issues: fsm.Issues{
				Cycles: []fsm.Cycle{{
					Path:    []string{"closed", "open", "closed"},
					Message: "Cycle detected: closed → open → closed",
					Level:   ir.SeverityInfo,
				}},
			},
		},
		Exploration: &engine.Result{
			HardDeadlocks: []engine.HardDeadlock{{
				State:     "open",
				Label:     "Open",
				Variables: ir.VariableState{"x": ir.IntValue(1)},
				Reason:    `No enabled transitions with variable state: {"x":1}`,
				Trace:     []string{"t1"},
				Depth:     1,
			}},
			MaxDepthReached:      1,
			NodesExplored:        3,
			UniqueConfigurations: 2,
			Status:               engine.StatusExhaustive,
			Limits:               engine.DefaultLimits(),
		},
	}
}

func TestWriteTextGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "report_text", buf.Bytes())
}

func TestMarkdownGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "report_markdown", []byte(Markdown(sampleReport())))
}

func TestWriteExplorationTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExploration(&buf, &engine.Result{
		Status: engine.StatusNodeLimited,
		Bounds: engine.BoundsReport{Warnings: []string{"variable n is unbounded"}},
	}))
	out := buf.String()
	assert.Contains(t, out, "Exploration: node_limited")
	assert.Contains(t, out, "no deadlock found before the search stopped")
	assert.Contains(t, out, "warning: variable n is unbounded")
}

func TestWriteExplorationNothingSeeded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExploration(&buf, &engine.Result{Status: engine.StatusExhaustive}))
	out := buf.String()
	assert.Contains(t, out, "no initial configuration to explore")
	assert.NotContains(t, out, "verified deadlock-free")
}

func TestWriteDiagnosticsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDiagnostics(&buf, nil))
	assert.Equal(t, "Diagnostics: none\n", buf.String())
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))
	assert.True(t, strings.Contains(buf.String(), `"model_hash": "0123456789abcdef0123"`))

	back, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sampleReport().Exploration.HardDeadlocks, back.Exploration.HardDeadlocks)
	assert.Equal(t, sampleReport().Diagnostics(), back.Diagnostics())
}

func TestRenderTerminal(t *testing.T) {
	out, err := RenderTerminal(Markdown(sampleReport()), 100)
	require.NoError(t, err)
	assert.Contains(t, out, "door")
	assert.Contains(t, out, "Deadlock")
}

func TestCellEscapesPipes(t *testing.T) {
	assert.Equal(t, `a \|\| b c`, cell("a || b\nc"))
}
