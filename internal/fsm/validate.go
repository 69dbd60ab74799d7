package fsm

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// Diagnostic codes produced by Validate.
const (
	CodeNoInitialState   = "E301"
	CodeDeadState        = "E302"
	CodeNondeterministic = "E303"
	CodeNoFinalState     = "W301"
	CodeUnreachableState = "W302"
	CodeIncomplete       = "W303"
)

// Issues collects the raw findings behind a Result.
type Issues struct {
	DeterminismIssues  []DeterminismIssue  `json:"determinism_issues,omitempty"`
	CompletenessIssues []CompletenessIssue `json:"completeness_issues,omitempty"`
	DeadStates         []StateRef          `json:"dead_states,omitempty"`
	UnreachableStates  []StateRef          `json:"unreachable_states,omitempty"`
	Cycles             []Cycle             `json:"cycles,omitempty"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid      bool            `json:"valid"`
	Errors     []ir.Diagnostic `json:"errors,omitempty"`
	Warnings   []ir.Diagnostic `json:"warnings,omitempty"`
	Properties Properties      `json:"properties"`
	Metrics    Metrics         `json:"metrics"`
	Issues     Issues          `json:"issues"`
}

// Validate runs every structural check. The model is valid when it has an
// initial state, no dead states, and no non-determinism; missing final
// states, unreachable states, and incomplete guards are warnings.
//
// checker may be nil; see CheckDeterminism and CheckCompleteness.
func Validate(ctx context.Context, m *ir.Model, checker *smt.Checker) Result {
	met := ComputeMetrics(m)
	issues := Issues{
		DeterminismIssues:  CheckDeterminism(ctx, m, checker),
		CompletenessIssues: CheckCompleteness(ctx, m, checker),
		DeadStates:         FindDeadStates(m),
		UnreachableStates:  FindUnreachableStates(m),
		Cycles:             AnalyzeCycles(m),
	}

	props := graphProperties(m, met, issues.UnreachableStates)
	props.IsDeterministic = len(issues.DeterminismIssues) == 0
	props.CompletenessChecked = checker != nil
	props.IsComplete = len(issues.CompletenessIssues) == 0

	res := Result{Properties: props, Metrics: met, Issues: issues}

	if !props.HasInitialState {
		res.Errors = append(res.Errors, ir.Diagnostic{
			Kind: ir.KindStructure, Severity: ir.SeverityError, Code: CodeNoInitialState,
			Message:    "Model has no initial state",
			Suggestion: "Mark one state as initial",
		})
	}
	for _, s := range issues.DeadStates {
		res.Errors = append(res.Errors, ir.Diagnostic{
			Kind: ir.KindDeadState, Severity: ir.SeverityError, Code: CodeDeadState,
			Location:   ir.Location{StateID: s.ID},
			Message:    fmt.Sprintf("Dead state %s has no outgoing transitions and is not final", s.Label),
			Suggestion: "Add an outgoing transition or mark the state final",
		})
	}
	for _, d := range issues.DeterminismIssues {
		msg := fmt.Sprintf("Non-deterministic transitions from %s on event '%s' to %s",
			d.State, d.Event, strings.Join(d.Targets, " and "))
		if d.CounterExample != "" {
			msg += fmt.Sprintf(" (e.g. %s)", d.CounterExample)
		}
		if d.Assumed {
			msg += "; solver unavailable, verdict assumed"
		}
		res.Errors = append(res.Errors, ir.Diagnostic{
			Kind: ir.KindNondeterministic, Severity: ir.SeverityError, Code: CodeNondeterministic,
			Location:   ir.Location{StateID: d.State, TransitionID: d.Transitions[1]},
			Message:    msg,
			Suggestion: "Make the guards mutually exclusive",
		})
	}

	if !props.HasFinalState {
		res.Warnings = append(res.Warnings, ir.Diagnostic{
			Kind: ir.KindStructure, Severity: ir.SeverityWarning, Code: CodeNoFinalState,
			Message: "Model has no final state",
		})
	}
	for _, s := range issues.UnreachableStates {
		res.Warnings = append(res.Warnings, ir.Diagnostic{
			Kind: ir.KindUnreachable, Severity: ir.SeverityWarning, Code: CodeUnreachableState,
			Location: ir.Location{StateID: s.ID},
			Message:  fmt.Sprintf("State %s is unreachable from any initial state", s.Label),
		})
	}
	for _, c := range issues.CompletenessIssues {
		msg := fmt.Sprintf("Guards from %s on event '%s' do not cover every case", c.State, c.Event)
		if c.GapModel != "" {
			msg += fmt.Sprintf(" (e.g. %s)", c.GapModel)
		}
		if c.Assumed {
			msg += "; solver unavailable, verdict assumed"
		}
		res.Warnings = append(res.Warnings, ir.Diagnostic{
			Kind: ir.KindIncomplete, Severity: ir.SeverityWarning, Code: CodeIncomplete,
			Location: ir.Location{StateID: c.State},
			Message:  msg,
		})
	}

	res.Valid = len(res.Errors) == 0
	return res
}
