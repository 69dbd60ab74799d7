package ir

// State is a control state of the automaton.
type State struct {
	ID       string            `json:"id"`
	Label    string            `json:"label,omitempty"`
	Initial  bool              `json:"initial,omitempty"`
	Final    bool              `json:"final,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DisplayName returns the label, or the id when no label was authored.
func (s State) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// Transition is a directed edge between two states. Event, guard, and action
// are all optional.
type Transition struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Event  string `json:"event,omitempty"`
	Guard  Guard  `json:"guard"`
	Action string `json:"action,omitempty"`
}

// EventKind classifies an event by who controls it.
type EventKind string

const (
	EventInput    EventKind = "input"    // supplied by the environment
	EventOutput   EventKind = "output"   // emitted by the protocol itself
	EventInternal EventKind = "internal" // internal step
	EventTimeout  EventKind = "timeout"  // passage of time
)

// ValidEventKinds is the closed set of event classifications.
var ValidEventKinds = map[EventKind]bool{
	EventInput:    true,
	EventOutput:   true,
	EventInternal: true,
	EventTimeout:  true,
}

// Event is a named, classified protocol event.
type Event struct {
	Name string    `json:"name"`
	Kind EventKind `json:"kind"`
}

// VarType is the declared type of an EFSM variable.
type VarType string

const (
	VarInt  VarType = "int"
	VarBool VarType = "bool"
	VarEnum VarType = "enum"
)

// ValidVarTypes is the closed set of variable types.
var ValidVarTypes = map[VarType]bool{
	VarInt:  true,
	VarBool: true,
	VarEnum: true,
}

// Variable is a typed EFSM variable.
//
// Min and Max are inclusive and only meaningful for int. Values is the
// ordered domain of an enum. Initial is nil when no initial value was
// authored; its tag may disagree with Type, which the analyzer reports.
type Variable struct {
	Name    string   `json:"name"`
	Type    VarType  `json:"type"`
	Min     *int64   `json:"min,omitempty"`
	Max     *int64   `json:"max,omitempty"`
	Values  []string `json:"values,omitempty"`
	Initial Value    `json:"-"`
}

// Bounded reports whether an int variable declares both bounds. bool and
// enum variables are always bounded by construction.
func (v Variable) Bounded() bool {
	if v.Type != VarInt {
		return true
	}
	return v.Min != nil && v.Max != nil
}

// HasValue reports whether s is one of the enum's declared values.
func (v Variable) HasValue(s string) bool {
	for _, val := range v.Values {
		if val == s {
			return true
		}
	}
	return false
}

// GuardKind selects how a Guard is expressed. The string values match the
// SMT collaborator's wire names.
type GuardKind string

const (
	GuardAlwaysTrue GuardKind = "always_true"
	GuardManual     GuardKind = "manual"
	GuardProtocol   GuardKind = "protocol"
)

// Guard is a transition's enabling condition: always true, a free-form
// boolean expression, or a conjunction of protocol field comparisons.
type Guard struct {
	Kind       GuardKind        `json:"type"`
	Expression string           `json:"expression,omitempty"`
	Conditions []FieldCondition `json:"conditions,omitempty"`
}

// IsAlwaysTrue reports whether the guard imposes no condition.
func (g Guard) IsAlwaysTrue() bool {
	switch g.Kind {
	case GuardManual:
		return isBlank(g.Expression)
	case GuardProtocol:
		return len(g.Conditions) == 0
	default:
		return true
	}
}

// Comparison operators for protocol field conditions.
const (
	OpEquals         = "equals"
	OpNotEquals      = "not_equals"
	OpGreaterThan    = "greater_than"
	OpLessThan       = "less_than"
	OpGreaterOrEqual = "greater_or_equal"
	OpLessOrEqual    = "less_or_equal"
)

// FieldCondition compares one protocol field against a literal value or a
// named option of that field.
type FieldCondition struct {
	FieldID  string `json:"field_id"`
	Operator string `json:"operator"`
	Value    *int64 `json:"value,omitempty"`
	Option   string `json:"field_option_name,omitempty"`
}

// Field is a protocol message field that structured guards can reference.
type Field struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Options []FieldOption `json:"options,omitempty"`
}

// FieldOption is a named numeric value of a field.
type FieldOption struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
