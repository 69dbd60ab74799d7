package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
)

// Explorer searches the configuration space of one model.
//
// Thread-safety: an Explorer caches guard parses and is NOT safe for
// concurrent use. Sequential calls to Explore are independent.
type Explorer struct {
	model    *ir.Model
	limits   Limits
	clock    Clock
	logger   *slog.Logger
	eval     *guard.Evaluator
	states   map[string]ir.State
	events   map[string]ir.Event
	outgoing map[string][]ir.Transition
	warned   map[string]bool
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithLimits sets the exploration limits. Non-positive fields fall back to
// the defaults.
func WithLimits(l Limits) Option {
	return func(x *Explorer) {
		x.limits = l.Normalize()
	}
}

// WithClock sets the clock used for the deadline.
func WithClock(c Clock) Option {
	return func(x *Explorer) {
		x.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Explorer) {
		x.logger = l
	}
}

// WithEvaluator replaces the guard evaluator. By default the Explorer
// builds one over the model's variables and fields.
func WithEvaluator(e *guard.Evaluator) Option {
	return func(x *Explorer) {
		x.eval = e
	}
}

// New creates an Explorer for m with the default limits.
func New(m *ir.Model, opts ...Option) *Explorer {
	x := &Explorer{
		model:    m,
		limits:   DefaultLimits(),
		clock:    SystemClock(),
		logger:   slog.Default(),
		states:   m.StateByID(),
		events:   m.EventByName(),
		outgoing: m.Outgoing(),
		warned:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.eval == nil {
		x.eval = guard.New(m.Variables, guard.WithLogger(x.logger), guard.WithFields(m.Fields))
	}
	return x
}

// Limits returns the effective limits.
func (x *Explorer) Limits() Limits {
	return x.limits
}

// run is the mutable state of one Explore call.
type run struct {
	queue   *configQueue
	visited *visitedSet
	budget  *nodeBudget
	fired   map[string]bool
	start   time.Time
}

// Explore runs the bounded search. It never fails: limits and cancellation
// end the search early and are reported in Result.Status.
func (x *Explorer) Explore(ctx context.Context) *Result {
	r := &run{
		queue:   newConfigQueue(),
		visited: newVisitedSet(),
		budget:  newNodeBudget(x.limits.MaxNodes),
		fired:   make(map[string]bool),
		start:   x.clock.Now(),
	}
	res := &Result{
		HardDeadlocks:        []HardDeadlock{},
		ConditionalDeadlocks: []ConditionalDeadlock{},
		ReachableStates:      []string{},
		FiredTransitions:     []string{},
		Status:               StatusExhaustive,
		Limits:               x.limits,
		Bounds:               AreVariablesBounded(x.model.Variables),
	}
	if !res.Bounds.Bounded {
		x.logger.Warn("model has unbounded variables; exploration is not sound",
			"variables", res.Bounds.Unbounded)
	}

	initial := guard.InitialVariableState(x.model.Variables)
	for _, s := range x.model.InitialStates() {
		r.queue.Push(configuration{state: s.ID, variables: initial.Clone(), trace: []string{}})
	}
	if r.queue.Len() == 0 {
		x.logger.Warn("model has no initial state; nothing to explore")
	}

	depthLimited := false
	for r.queue.Len() > 0 {
		if err := x.checkLimits(ctx, r); err != nil {
			var le *LimitError
			if errors.As(err, &le) {
				res.Status = le.Status
			}
			x.logger.Warn("exploration stopped early", "reason", err.Error(), "queued", r.queue.Len())
			break
		}

		cur, _ := r.queue.Pop()
		r.budget.Spend()

		if r.visited.Seen(cur) {
			continue
		}
		r.visited.Record(cur)

		if cur.depth >= x.limits.MaxDepth {
			depthLimited = true
			continue
		}
		state, known := x.states[cur.state]
		if !known {
			x.logger.Warn("transition targets unknown state", "state", cur.state)
			continue
		}
		x.expand(r, res, state, cur)
	}
	if res.Status == StatusExhaustive && depthLimited {
		res.Status = StatusDepthLimited
	}

	res.Elapsed = x.clock.Now().Sub(r.start)
	res.NodesExplored = r.budget.Spent()
	res.UniqueConfigurations = r.visited.Len()
	for _, s := range x.model.States {
		if r.visited.HasState(s.ID) {
			res.ReachableStates = append(res.ReachableStates, s.ID)
		}
	}
	for _, t := range x.model.Transitions {
		if r.fired[t.ID] {
			res.FiredTransitions = append(res.FiredTransitions, t.ID)
		}
	}

	x.logger.Info("exploration finished",
		"model", x.model.Name,
		"status", res.Status,
		"nodes", res.NodesExplored,
		"unique", res.UniqueConfigurations,
		"hard_deadlocks", len(res.HardDeadlocks),
		"conditional_deadlocks", len(res.ConditionalDeadlocks),
		"elapsed", res.Elapsed,
	)
	return res
}

// checkLimits runs once per dequeue. Cancellation wins over the deadline,
// which wins over the node budget.
func (x *Explorer) checkLimits(ctx context.Context, r *run) error {
	if err := ctx.Err(); err != nil {
		return &LimitError{Status: StatusCancelled, Message: "exploration cancelled", Err: err}
	}
	if elapsed := x.clock.Now().Sub(r.start); elapsed > x.limits.Timeout {
		return &LimitError{
			Status:  StatusTimedOut,
			Message: "deadline exceeded",
			Used:    int(elapsed.Milliseconds()),
			Limit:   int(x.limits.Timeout.Milliseconds()),
		}
	}
	return r.budget.Check()
}

// expand fires every enabled transition of cur and classifies cur when
// none of them makes progress.
func (x *Explorer) expand(r *run, res *Result, state ir.State, cur configuration) {
	progress := false
	var inputs []string

	for _, t := range x.outgoing[cur.state] {
		kind, ok := x.fire(t, cur.variables, true)
		if !ok {
			continue
		}
		if kind == ir.EventInput {
			if !slices.Contains(inputs, t.Event) {
				inputs = append(inputs, t.Event)
			}
		} else {
			progress = true
		}

		out := x.eval.ExecuteAction(t.Action, cur.variables)
		for _, c := range out.Conditions {
			x.logger.Debug("action condition", "transition", t.ID, "condition", c.Message)
		}
		r.fired[t.ID] = true

		next := configuration{
			state:     t.To,
			variables: out.State,
			depth:     cur.depth + 1,
			trace:     append(slices.Clip(cur.trace), t.ID),
		}
		res.MaxDepthReached = max(res.MaxDepthReached, next.depth)
		if r.visited.Seen(next) {
			res.CycleObserved = true
			continue
		}
		r.queue.Push(next)
	}

	if progress || state.Final {
		return
	}
	label := state.DisplayName()
	if len(inputs) > 0 {
		x.logger.Debug("conditional deadlock", "state", state.ID, "inputs", inputs)
		res.ConditionalDeadlocks = append(res.ConditionalDeadlocks, ConditionalDeadlock{
			State:          state.ID,
			Label:          label,
			RequiredInputs: inputs,
			Reason:         fmt.Sprintf("Blocked waiting for INPUT events: %s", strings.Join(inputs, ", ")),
			Variables:      cur.variables,
			Trace:          cur.trace,
			Depth:          cur.depth,
		})
		return
	}
	x.logger.Debug("hard deadlock", "state", state.ID, "variables", cur.variables.String())
	res.HardDeadlocks = append(res.HardDeadlocks, HardDeadlock{
		State:     state.ID,
		Label:     label,
		Variables: cur.variables,
		Reason:    fmt.Sprintf("No enabled transitions with variable state: %s", cur.variables.String()),
		Trace:     cur.trace,
		Depth:     cur.depth,
	})
}
