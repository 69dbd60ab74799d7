package engine

import (
	"time"

	"github.com/roach88/efsmcheck/internal/ir"
)

// Status tells whether an exploration covered the whole reachable space.
type Status string

const (
	// StatusExhaustive means every reachable configuration was expanded.
	StatusExhaustive Status = "exhaustive"
	// StatusDepthLimited means some configuration sat at MaxDepth and was
	// not expanded.
	StatusDepthLimited Status = "depth_limited"
	StatusNodeLimited  Status = "node_limited"
	StatusTimedOut     Status = "timed_out"
	StatusCancelled    Status = "cancelled"
)

// Truncated reports whether the status means part of the space was not
// explored.
func (s Status) Truncated() bool {
	return s != StatusExhaustive
}

// Default exploration limits.
const (
	DefaultMaxDepth = 50
	DefaultMaxNodes = 10000
	DefaultTimeout  = 5 * time.Second
)

// Limits bounds one exploration. Non-positive fields fall back to the
// defaults.
type Limits struct {
	MaxDepth int           `json:"max_depth" yaml:"max_depth"`
	MaxNodes int           `json:"max_nodes" yaml:"max_nodes"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{MaxDepth: DefaultMaxDepth, MaxNodes: DefaultMaxNodes, Timeout: DefaultTimeout}
}

// Normalize replaces every non-positive field with its default.
func (l Limits) Normalize() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	return l
}

// HardDeadlock is a reachable non-final configuration where no transition
// of any kind can fire.
type HardDeadlock struct {
	State     string           `json:"state"`
	Label     string           `json:"label"`
	Variables ir.VariableState `json:"variables"`
	Reason    string           `json:"reason"`
	Trace     []string         `json:"trace"`
	Depth     int              `json:"depth"`
}

// ConditionalDeadlock is a reachable non-final configuration that can only
// move on input events the environment may never supply.
type ConditionalDeadlock struct {
	State          string           `json:"state"`
	Label          string           `json:"label"`
	RequiredInputs []string         `json:"required_inputs"`
	Reason         string           `json:"reason"`
	Variables      ir.VariableState `json:"variables"`
	Trace          []string         `json:"trace"`
	Depth          int              `json:"depth"`
}

// Result is the aggregate outcome of an exploration. Partial results from
// a truncated run are still meaningful: every deadlock listed is real.
type Result struct {
	HardDeadlocks        []HardDeadlock        `json:"hard_deadlocks"`
	ConditionalDeadlocks []ConditionalDeadlock `json:"conditional_deadlocks"`
	CycleObserved        bool                  `json:"cycle_observed"`
	MaxDepthReached      int                   `json:"max_depth_reached"`
	Elapsed              time.Duration         `json:"elapsed"`
	NodesExplored        int                   `json:"nodes_explored"`
	UniqueConfigurations int                   `json:"unique_configurations"`
	ReachableStates      []string              `json:"reachable_states"`
	FiredTransitions     []string              `json:"fired_transitions"`
	Status               Status                `json:"status"`
	Limits               Limits                `json:"limits"`
	Bounds               BoundsReport          `json:"bounds"`
}

// Verified reports whether the model is proven deadlock-free: the search
// seeded at least one configuration, was exhaustive, and found nothing.
func (r *Result) Verified() bool {
	return r.Status == StatusExhaustive && r.UniqueConfigurations > 0 && !r.HasDeadlocks()
}

// HasDeadlocks reports whether any hard or conditional deadlock was found.
func (r *Result) HasDeadlocks() bool {
	return len(r.HardDeadlocks) > 0 || len(r.ConditionalDeadlocks) > 0
}
