package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/efsmcheck/internal/analyzer"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/fsm"
	"github.com/roach88/efsmcheck/internal/ids"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/smt"
)

// Report is the combined outcome of one analysis run.
type Report struct {
	RunID       string          `json:"run_id"`
	Model       string          `json:"model"`
	ModelHash   string          `json:"model_hash"`
	CreatedAt   time.Time       `json:"created_at"`
	Summary     Summary         `json:"summary"`
	Analysis    analyzer.Result `json:"analysis"`
	Structure   fsm.Result      `json:"structure"`
	Exploration *engine.Result  `json:"exploration"`
}

// Summary counts what a reader needs before the details.
type Summary struct {
	Errors               int           `json:"errors"`
	Warnings             int           `json:"warnings"`
	Infos                int           `json:"infos"`
	HardDeadlocks        int           `json:"hard_deadlocks"`
	ConditionalDeadlocks int           `json:"conditional_deadlocks"`
	Status               engine.Status `json:"status"`
	Verified             bool          `json:"verified"`
	Passed               bool          `json:"passed"`
}

// Diagnostics returns the analyzer diagnostics followed by the structural
// errors and warnings.
func (r *Report) Diagnostics() []ir.Diagnostic {
	out := make([]ir.Diagnostic, 0, len(r.Analysis.Diagnostics)+len(r.Structure.Errors)+len(r.Structure.Warnings))
	out = append(out, r.Analysis.Diagnostics...)
	out = append(out, r.Structure.Errors...)
	out = append(out, r.Structure.Warnings...)
	return out
}

// HasFindings reports whether the run found an error diagnostic or a
// deadlock.
func (r *Report) HasFindings() bool {
	return !r.Summary.Passed
}

func summarize(r *Report) Summary {
	s := Summary{
		HardDeadlocks:        len(r.Exploration.HardDeadlocks),
		ConditionalDeadlocks: len(r.Exploration.ConditionalDeadlocks),
		Status:               r.Exploration.Status,
		Verified:             r.Exploration.Verified(),
	}
	for _, d := range r.Diagnostics() {
		switch d.Severity {
		case ir.SeverityError:
			s.Errors++
		case ir.SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	s.Passed = s.Errors == 0 && !r.Exploration.HasDeadlocks()
	return s
}

// Runner produces reports. It is safe for concurrent use when its
// generator and clock are.
type Runner struct {
	ids     ids.Generator
	clock   engine.Clock
	checker *smt.Checker
	limits  engine.Limits
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithIDs sets the run id generator.
func WithIDs(g ids.Generator) Option {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithClock sets the clock used for timestamps and exploration timeouts.
func WithClock(c engine.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithChecker routes guard overlap and completeness questions through an
// SMT checker. Without one, the local approximations are used.
func WithChecker(c *smt.Checker) Option {
	return func(r *Runner) {
		r.checker = c
	}
}

// WithLimits bounds the exploration.
func WithLimits(l engine.Limits) Option {
	return func(r *Runner) {
		r.limits = l
	}
}

// WithLogger sets the logger passed to every check.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner with UUIDv7 run ids, the system clock, default
// limits, and no checker.
func New(opts ...Option) *Runner {
	r := &Runner{
		ids:    ids.UUIDv7Generator{},
		clock:  engine.SystemClock(),
		limits: engine.DefaultLimits(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run analyzes, validates, and explores m. Only a model that cannot be
// hashed is an error; everything the checks find is in the report.
func (r *Runner) Run(ctx context.Context, m *ir.Model) (*Report, error) {
	hash, err := m.Hash()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	rep := &Report{
		RunID:     r.ids.Generate(),
		Model:     m.Name,
		ModelHash: hash,
		CreatedAt: r.clock.Now().UTC(),
	}
	logger := r.logger.With("run_id", rep.RunID, "model", m.Name)

	rep.Analysis = r.analyze(ctx, m, logger)
	rep.Structure = fsm.Validate(ctx, m, r.checker)
	rep.Exploration = r.explore(ctx, m, logger)
	rep.Summary = summarize(rep)

	logger.Info("analysis complete",
		"errors", rep.Summary.Errors,
		"warnings", rep.Summary.Warnings,
		"status", rep.Summary.Status,
		"passed", rep.Summary.Passed,
	)
	return rep, nil
}

// Explore runs only the deadlock exploration with the runner's limits and
// clock.
func (r *Runner) Explore(ctx context.Context, m *ir.Model) *engine.Result {
	return r.explore(ctx, m, r.logger)
}

func (r *Runner) explore(ctx context.Context, m *ir.Model, logger *slog.Logger) *engine.Result {
	x := engine.New(m,
		engine.WithLimits(r.limits),
		engine.WithClock(r.clock),
		engine.WithLogger(logger),
	)
	return x.Explore(ctx)
}

// Validate runs only the structural validation.
func (r *Runner) Validate(ctx context.Context, m *ir.Model) fsm.Result {
	return fsm.Validate(ctx, m, r.checker)
}

// Analyze runs only the variable and guard analysis.
func (r *Runner) Analyze(ctx context.Context, m *ir.Model) analyzer.Result {
	return r.analyze(ctx, m, r.logger)
}

func (r *Runner) analyze(ctx context.Context, m *ir.Model, logger *slog.Logger) analyzer.Result {
	opts := []analyzer.Option{analyzer.WithLogger(logger)}
	if r.checker != nil {
		opts = append(opts, analyzer.WithChecker(r.checker))
	}
	return analyzer.Analyze(ctx, m, opts...)
}
