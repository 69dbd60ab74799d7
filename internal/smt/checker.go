package smt

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/roach88/efsmcheck/internal/ir"
)

// FallbackPolicy decides the verdict used when the collaborator fails.
type FallbackPolicy string

const (
	// FailOpen assumes the benign answer: guards do not overlap and guard
	// sets are complete. Degraded runs produce false negatives rather than
	// false alarms.
	FailOpen FallbackPolicy = "fail_open"
	// FailClosed assumes the harmful answer: guards overlap and guard sets
	// have gaps. Use for safety-critical models.
	FailClosed FallbackPolicy = "fail_closed"
)

// DefaultPolicy is the policy of a Checker built without WithPolicy.
const DefaultPolicy = FailOpen

// DefaultConcurrency bounds concurrent collaborator calls per check.
const DefaultConcurrency = 4

// Operation names passed to the fallback observer.
const (
	OpCheckGuards       = "check_guards"
	OpCheckCompleteness = "check_completeness"
)

// Verdict is a satisfiability answer. Assumed is set when the answer came
// from the fallback policy rather than the collaborator.
type Verdict struct {
	Satisfiable bool   `json:"satisfiable"`
	Model       string `json:"model,omitempty"`
	Assumed     bool   `json:"assumed,omitempty"`
}

// CompletenessVerdict is a completeness answer, see Verdict.
type CompletenessVerdict struct {
	Complete bool   `json:"complete"`
	GapModel string `json:"gap_model,omitempty"`
	Assumed  bool   `json:"assumed,omitempty"`
}

// Checker wraps a Solver so that no call can fail: failures become
// policy verdicts.
//
// Thread-safety: Checker is safe for concurrent use when its Solver and
// VerdictCache are.
type Checker struct {
	solver      Solver
	policy      FallbackPolicy
	cache       VerdictCache
	logger      *slog.Logger
	onFallback  func(op string)
	concurrency int
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithPolicy sets the fallback policy. Unknown values are ignored.
func WithPolicy(p FallbackPolicy) CheckerOption {
	return func(c *Checker) {
		if p == FailOpen || p == FailClosed {
			c.policy = p
		}
	}
}

// WithCache memoizes collaborator verdicts. Assumed verdicts are never
// cached.
func WithCache(cache VerdictCache) CheckerOption {
	return func(c *Checker) {
		c.cache = cache
	}
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *slog.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithFallbackObserver registers fn to be called with the operation name
// each time a verdict is assumed. The server uses it for metrics.
func WithFallbackObserver(fn func(op string)) CheckerOption {
	return func(c *Checker) {
		c.onFallback = fn
	}
}

// WithConcurrency bounds how many collaborator calls a single check may
// have in flight. Non-positive values keep the default.
func WithConcurrency(n int) CheckerOption {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewChecker wraps solver.
func NewChecker(solver Solver, opts ...CheckerOption) *Checker {
	c := &Checker{
		solver:      solver,
		policy:      DefaultPolicy,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the configured fallback policy.
func (c *Checker) Policy() FallbackPolicy {
	return c.policy
}

// Concurrency returns the bound on concurrent collaborator calls.
func (c *Checker) Concurrency() int {
	return c.concurrency
}

// GuardsOverlap reports whether a and b can hold simultaneously.
func (c *Checker) GuardsOverlap(ctx context.Context, a, b Guard) Verdict {
	key := c.cacheKey(OpCheckGuards, checkGuardsRequest{Guard1: a, Guard2: b})
	var cached Verdict
	if c.lookup(ctx, key, &cached) {
		return cached
	}

	res, err := c.solver.CheckGuardsSatisfiable(ctx, a, b)
	if err != nil {
		v := Verdict{Satisfiable: c.policy == FailClosed, Assumed: true}
		c.fallback(OpCheckGuards, err, "satisfiable", v.Satisfiable)
		return v
	}
	v := Verdict{Satisfiable: res.Satisfiable, Model: res.Model}
	c.store(ctx, key, v)
	return v
}

// GuardsComplete reports whether guards cover every valuation of vars for
// the given state and event.
func (c *Checker) GuardsComplete(ctx context.Context, guards []Guard, state, event string, vars []ir.Variable) CompletenessVerdict {
	key := c.cacheKey(OpCheckCompleteness, checkCompletenessRequest{Guards: guards, State: state, Event: event, Variables: vars})
	var cached CompletenessVerdict
	if c.lookup(ctx, key, &cached) {
		return cached
	}

	res, err := c.solver.CheckGuardsComplete(ctx, guards, state, event, vars)
	if err != nil {
		v := CompletenessVerdict{Complete: c.policy == FailOpen, Assumed: true}
		c.fallback(OpCheckCompleteness, err, "complete", v.Complete)
		return v
	}
	v := CompletenessVerdict{Complete: res.Complete, GapModel: res.GapModel}
	c.store(ctx, key, v)
	return v
}

func (c *Checker) fallback(op string, err error, field string, assumed bool) {
	c.logger.Warn("solver call failed; verdict assumed from fallback policy",
		"op", op,
		"policy", string(c.policy),
		field, assumed,
		"assumed", true,
		"error", err)
	if c.onFallback != nil {
		c.onFallback(op)
	}
}

func (c *Checker) cacheKey(op string, req any) string {
	if c.cache == nil {
		return ""
	}
	key, err := ir.ContentHash(ir.DomainSolverVerdict, map[string]any{
		"op":      op,
		"policy":  string(c.policy),
		"request": req,
	})
	if err != nil {
		c.logger.Debug("verdict cache key failed", "op", op, "error", err)
		return ""
	}
	return key
}

func (c *Checker) lookup(ctx context.Context, key string, out any) bool {
	if key == "" {
		return false
	}
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Debug("verdict cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Debug("verdict cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Checker) store(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data); err != nil {
		c.logger.Debug("verdict cache write failed", "key", key, "error", err)
	}
}
