package engine

import (
	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
)

// eventEpsilon marks a transition that needs no event: no event name, or a
// name missing from the registry.
const eventEpsilon ir.EventKind = ""

// CanFire reports whether t may fire from the given valuation.
//
// The guard must evaluate to exactly True; Unknown never fires. Protocol
// guards constrain message fields, which are chosen by the sender, so they
// are assumed satisfiable. Output, internal, and timeout events are
// available whenever the guard holds; input events only when allowInputs
// is set.
func (x *Explorer) CanFire(t ir.Transition, state ir.VariableState, allowInputs bool) bool {
	_, ok := x.fire(t, state, allowInputs)
	return ok
}

// fire is CanFire that also returns the event kind, eventEpsilon for
// epsilon transitions.
func (x *Explorer) fire(t ir.Transition, state ir.VariableState, allowInputs bool) (ir.EventKind, bool) {
	if !x.guardHolds(t, state) {
		return "", false
	}
	if t.Event == "" {
		return eventEpsilon, true
	}
	event, registered := x.events[t.Event]
	if !registered {
		if !x.warned[t.Event] {
			x.warned[t.Event] = true
			x.logger.Warn("event not in registry, treating as epsilon", "event", t.Event)
		}
		return eventEpsilon, true
	}

	switch event.Kind {
	case ir.EventInput:
		return event.Kind, allowInputs
	case ir.EventOutput, ir.EventInternal, ir.EventTimeout:
		return event.Kind, true
	default:
		x.logger.Warn("unknown event kind, treating as unavailable", "event", t.Event, "kind", event.Kind)
		return event.Kind, false
	}
}

func (x *Explorer) guardHolds(t ir.Transition, state ir.VariableState) bool {
	switch t.Guard.Kind {
	case ir.GuardProtocol:
		return true
	case ir.GuardManual:
		return x.eval.EvaluateGuard(t.Guard.Expression, state) == guard.True
	default:
		return true
	}
}
