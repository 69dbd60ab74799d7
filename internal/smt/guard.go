package smt

import (
	"strings"

	"github.com/roach88/efsmcheck/internal/ir"
)

// Guard is the collaborator's wire form of a transition guard.
type Guard struct {
	Type               ir.GuardKind        `json:"type"`
	ProtocolConditions []ir.FieldCondition `json:"protocolConditions,omitempty"`
	ManualExpression   string              `json:"manualExpression,omitempty"`
}

// GuardFromIR converts a model guard to its wire form. A guard that imposes
// no condition is always sent as always_true.
func GuardFromIR(g ir.Guard) Guard {
	if g.IsAlwaysTrue() {
		return Guard{Type: ir.GuardAlwaysTrue}
	}
	switch g.Kind {
	case ir.GuardProtocol:
		return Guard{Type: ir.GuardProtocol, ProtocolConditions: g.Conditions}
	case ir.GuardManual:
		return Guard{Type: ir.GuardManual, ManualExpression: strings.TrimSpace(g.Expression)}
	default:
		return Guard{Type: ir.GuardAlwaysTrue}
	}
}
