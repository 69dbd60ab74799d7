package ir

import "fmt"

// DiagnosticKind classifies an advisory finding about a model.
type DiagnosticKind string

const (
	KindOverflow          DiagnosticKind = "overflow"
	KindUnderflow         DiagnosticKind = "underflow"
	KindContradiction     DiagnosticKind = "contradiction"
	KindAmbiguous         DiagnosticKind = "ambiguous"
	KindUnreachable       DiagnosticKind = "unreachable"
	KindUnbounded         DiagnosticKind = "unbounded"
	KindUndefinedVariable DiagnosticKind = "undefined_variable"
	KindTypeMismatch      DiagnosticKind = "type_mismatch"
	KindInvalidExpression DiagnosticKind = "invalid_expression"

	// Structural findings about the state graph.
	KindStructure        DiagnosticKind = "structure"
	KindDeadState        DiagnosticKind = "dead_state"
	KindNondeterministic DiagnosticKind = "nondeterministic"
	KindIncomplete       DiagnosticKind = "incomplete"
	KindCycle            DiagnosticKind = "cycle"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Location points a diagnostic at the model element it concerns. Any subset
// of fields may be set.
type Location struct {
	TransitionID string `json:"transition_id,omitempty"`
	StateID      string `json:"state_id,omitempty"`
	Variable     string `json:"variable,omitempty"`
	Expression   string `json:"expression,omitempty"`
}

// Diagnostic is an advisory finding. Diagnostics never mutate the model.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	Severity   Severity       `json:"severity"`
	Code       string         `json:"code,omitempty"`
	Location   Location       `json:"location"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
}

func (d Diagnostic) String() string {
	loc := d.Location.String()
	if loc != "" {
		loc = " (" + loc + ")"
	}
	return fmt.Sprintf("%s [%s] %s%s", d.Severity, d.Kind, d.Message, loc)
}

func (l Location) String() string {
	switch {
	case l.TransitionID != "":
		return "transition " + l.TransitionID
	case l.StateID != "":
		return "state " + l.StateID
	case l.Variable != "":
		return "variable " + l.Variable
	default:
		return ""
	}
}

// WithTransition returns copies of diags with the transition id attached.
func WithTransition(diags []Diagnostic, transitionID string) []Diagnostic {
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		d.Location.TransitionID = transitionID
		out[i] = d
	}
	return out
}
