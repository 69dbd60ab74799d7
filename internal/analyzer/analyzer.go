package analyzer

import (
	"context"
	"log/slog"

	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// Diagnostic codes produced by this package.
const (
	CodeDuplicateVariable   = "E101"
	CodeUnboundedInt        = "E102"
	CodeEmptyEnum           = "E103"
	CodeInvertedBounds      = "E104"
	CodeUnknownVariableType = "E105"
	CodeInitialOutOfRange   = "W101"
	CodeInitialType         = "W102"
	CodeContradiction       = "W103"
	CodeAmbiguous           = "W104"
	CodeUnreachable         = "W105"
	CodePotentialOverflow   = "I101"
	CodePotentialUnderflow  = "I102"
)

// Stats tallies what the analysis covered.
type Stats struct {
	TotalGuards                 int                       `json:"total_guards"`
	ValidGuards                 int                       `json:"valid_guards"`
	TotalActions                int                       `json:"total_actions"`
	ValidActions                int                       `json:"valid_actions"`
	UndefinedVariableReferences int                       `json:"undefined_variable_references"`
	PotentialOverflows          int                       `json:"potential_overflows"`
	Contradictions              int                       `json:"contradictions"`
	ByKind                      map[ir.DiagnosticKind]int `json:"by_kind"`
}

// Result is the outcome of Analyze.
type Result struct {
	Diagnostics []ir.Diagnostic `json:"diagnostics"`
	Stats       Stats           `json:"stats"`
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == ir.SeverityError {
			return true
		}
	}
	return false
}

type options struct {
	checker *smt.Checker
	logger  *slog.Logger
}

// Option configures Analyze.
type Option func(*options)

// WithChecker resolves undecided guard overlaps through the SMT
// collaborator.
func WithChecker(c *smt.Checker) Option {
	return func(o *options) {
		o.checker = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Analyze runs every static check over m and unions the diagnostics.
//
// Diagnostics come out in a stable order: variables, then per transition
// in authored order, then guard overlaps, then unreachable transitions.
func Analyze(ctx context.Context, m *ir.Model, opts ...Option) Result {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &analysis{
		model:  m,
		opts:   o,
		eval:   guard.New(m.Variables, guard.WithFields(m.Fields), guard.WithLogger(o.logger)),
		result: Result{Diagnostics: []ir.Diagnostic{}, Stats: Stats{ByKind: map[ir.DiagnosticKind]int{}}},
	}

	a.emit(checkVariables(m.Variables)...)
	for _, t := range m.Transitions {
		a.checkTransition(t)
	}
	a.emit(a.checkAmbiguity(ctx)...)
	a.emit(unreachableTransitions(m)...)

	for _, d := range a.result.Diagnostics {
		a.result.Stats.ByKind[d.Kind]++
	}
	a.result.Stats.UndefinedVariableReferences = a.result.Stats.ByKind[ir.KindUndefinedVariable]
	return a.result
}

// analysis holds the state of one Analyze call.
type analysis struct {
	model  *ir.Model
	opts   options
	eval   *guard.Evaluator
	result Result
}

func (a *analysis) emit(diags ...ir.Diagnostic) {
	a.result.Diagnostics = append(a.result.Diagnostics, diags...)
}

func (a *analysis) checkTransition(t ir.Transition) {
	stats := &a.result.Stats

	if text := guard.Text(t.Guard, a.model.Fields); text != "" {
		stats.TotalGuards++
		parsed := a.eval.ParseGuard(text)
		if parsed.Valid {
			stats.ValidGuards++
		}
		a.emit(ir.WithTransition(parsed.Errors, t.ID)...)
		a.emit(ir.WithTransition(parsed.Warnings, t.ID)...)
		if c := a.contradiction(t, text); c != nil {
			stats.Contradictions++
			a.emit(*c)
		}
	}

	if !isBlank(t.Action) {
		stats.TotalActions++
		parsed := a.eval.ParseAction(t.Action)
		if parsed.Valid {
			stats.ValidActions++
		}
		a.emit(ir.WithTransition(parsed.Errors, t.ID)...)
		a.emit(ir.WithTransition(parsed.Warnings, t.ID)...)
		overflows := a.overflowHeuristics(t, parsed.Assignments)
		stats.PotentialOverflows += len(overflows)
		a.emit(overflows...)
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
