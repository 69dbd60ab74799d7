package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/report"
	"github.com/roach88/efsmcheck/internal/testutil"
)

// Harness runs scenarios with a fixed run id and a frozen clock.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to every check. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run compiles the scenario's model, runs a full analysis, and evaluates
// every assertion against the report. A model that does not compile is an
// error; failed assertions are recorded in the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	m, err := scenario.LoadModel()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: loading model: %w", scenario.Name, err)
	}

	limits := engine.DefaultLimits()
	if scenario.Limits != nil {
		limits = mergeLimits(limits, *scenario.Limits)
	}

	runner := report.New(
		report.WithIDs(testutil.NewFixedRunID("")),
		report.WithClock(testutil.NewFakeClock()),
		report.WithLimits(limits),
		report.WithLogger(h.logger),
	)
	rep, err := runner.Run(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	result.Report = rep
	actx := &AssertionContext{Model: m, Report: rep}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"failures", len(result.Errors),
	)
	return result, nil
}

func mergeLimits(base, override engine.Limits) engine.Limits {
	if override.MaxDepth > 0 {
		base.MaxDepth = override.MaxDepth
	}
	if override.MaxNodes > 0 {
		base.MaxNodes = override.MaxNodes
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	return base
}

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Model  *ir.Model
	Report *report.Report
}
