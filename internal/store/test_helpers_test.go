package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/ids"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/report"
	"github.com/roach88/efsmcheck/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// testRunner produces reports with ids run-1, run-2, ... on a clock the
// test advances between runs.
func testRunner(clock *testutil.FakeClock) *report.Runner {
	return report.New(
		report.WithIDs(ids.NewSequence("run-", 1)),
		report.WithClock(clock),
		report.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// pingPongModel deadlocks in S0 with x = 2 after trace t1 t2 t1 t2. S2 is
// unreachable.
func pingPongModel(name string) *ir.Model {
	return &ir.Model{
		Name: name,
		States: []ir.State{
			{ID: "S0", Initial: true},
			{ID: "S1"},
			{ID: "S2", Final: true},
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

func runReport(t *testing.T, r *report.Runner, m *ir.Model) *report.Report {
	t.Helper()
	rep, err := r.Run(context.Background(), m)
	require.NoError(t, err)
	return rep
}
