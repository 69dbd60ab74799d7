package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/testutil"
)

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name   string
		pred   Predicate
		sql    string
		params []any
	}{
		{"nil", nil, "1 = 1", nil},
		{"empty and", And{}, "1 = 1", nil},
		{"equals", Equals{Column: "model", Value: "door"}, "model = ?", []any{"door"}},
		{"pointer equals", &Equals{Column: "passed", Value: true}, "passed = ?", []any{true}},
		{
			"conjunction",
			&And{Predicates: []Predicate{
				Equals{Column: "model", Value: "door"},
				And{Predicates: []Predicate{Equals{Column: "status", Value: "exhaustive"}}},
			}},
			"model = ? AND status = ?",
			[]any{"door", "exhaustive"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compilePredicate(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompilePredicate_Rejects(t *testing.T) {
	_, _, err := compilePredicate(Equals{Column: "report; DROP TABLE runs", Value: "x"})
	assert.ErrorContains(t, err, "cannot be filtered")

	_, _, err = compilePredicate(And{Predicates: []Predicate{Equals{Column: "model"}}})
	assert.ErrorContains(t, err, "nil value")
}

func TestFilterPredicate(t *testing.T) {
	passed := false
	sql, params, err := compilePredicate(Filter{
		Model:  "door",
		Status: engine.StatusExhaustive,
		Passed: &passed,
		Limit:  3,
	}.predicate())
	require.NoError(t, err)
	assert.Equal(t, "model = ? AND status = ? AND passed = ?", sql)
	assert.Equal(t, []any{"door", "exhaustive", false}, params)
}

func switchModel() *ir.Model {
	return &ir.Model{
		Name: "switch",
		States: []ir.State{
			{ID: "off", Initial: true},
			{ID: "on", Final: true},
		},
		Events: []ir.Event{{Name: "flip", Kind: ir.EventInternal}},
		Transitions: []ir.Transition{
			{ID: "t1", From: "off", To: "on", Event: "flip", Guard: ir.Guard{Kind: ir.GuardAlwaysTrue}},
		},
	}
}

func TestListRuns_PassedFilter(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	clock := testutil.NewFakeClock()
	r := testRunner(clock)

	require.NoError(t, s.WriteRun(ctx, runReport(t, r, pingPongModel("ping-pong"))))
	clock.Advance(time.Second)
	require.NoError(t, s.WriteRun(ctx, runReport(t, r, switchModel())))

	failed := false
	runs, err := s.ListRuns(ctx, Filter{Passed: &failed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ping-pong", runs[0].Model)
	assert.False(t, runs[0].Passed)

	ok := true
	runs, err = s.ListRuns(ctx, Filter{Passed: &ok, Status: engine.StatusExhaustive})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "switch", runs[0].Model)
}
