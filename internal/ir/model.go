package ir

import (
	"encoding/json"
	"fmt"
)

// Model is the immutable snapshot handed to every analysis. Nothing in this
// module mutates a Model after the compiler builds it.
type Model struct {
	Name        string       `json:"name"`
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
	Events      []Event      `json:"events,omitempty"`
	Variables   []Variable   `json:"variables,omitempty"`
	Fields      []Field      `json:"fields,omitempty"`
}

// InitialStates returns the states flagged initial, in authored order.
func (m *Model) InitialStates() []State {
	var out []State
	for _, s := range m.States {
		if s.Initial {
			out = append(out, s)
		}
	}
	return out
}

// StateByID indexes states by id.
func (m *Model) StateByID() map[string]State {
	idx := make(map[string]State, len(m.States))
	for _, s := range m.States {
		idx[s.ID] = s
	}
	return idx
}

// EventByName indexes the event registry by name.
func (m *Model) EventByName() map[string]Event {
	idx := make(map[string]Event, len(m.Events))
	for _, e := range m.Events {
		idx[e.Name] = e
	}
	return idx
}

// StateIDs returns all state ids in authored order.
func (m *Model) StateIDs() []string {
	ids := make([]string, len(m.States))
	for i, s := range m.States {
		ids[i] = s.ID
	}
	return ids
}

// Outgoing groups transitions by source state, preserving authored order.
func (m *Model) Outgoing() map[string][]Transition {
	out := make(map[string][]Transition, len(m.States))
	for _, t := range m.Transitions {
		out[t.From] = append(out[t.From], t)
	}
	return out
}

// VariableByName indexes variables by name. With duplicate names the first
// declaration wins; the analyzer reports the duplicate.
func VariableByName(vars []Variable) map[string]Variable {
	idx := make(map[string]Variable, len(vars))
	for _, v := range vars {
		if _, dup := idx[v.Name]; dup {
			continue
		}
		idx[v.Name] = v
	}
	return idx
}

// variableJSON is the wire shape of Variable, with the initial value
// rendered as a plain JSON scalar.
type variableJSON struct {
	Name    string          `json:"name"`
	Type    VarType         `json:"type"`
	Min     *int64          `json:"min,omitempty"`
	Max     *int64          `json:"max,omitempty"`
	Values  []string        `json:"values,omitempty"`
	Initial json.RawMessage `json:"initial,omitempty"`
}

// MarshalJSON implements json.Marshaler for Variable.
func (v Variable) MarshalJSON() ([]byte, error) {
	out := variableJSON{Name: v.Name, Type: v.Type, Min: v.Min, Max: v.Max, Values: v.Values}
	if v.Initial != nil {
		raw, err := MarshalValue(v.Initial)
		if err != nil {
			return nil, fmt.Errorf("variable %q initial: %w", v.Name, err)
		}
		out.Initial = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for Variable.
func (v *Variable) UnmarshalJSON(data []byte) error {
	var in variableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = Variable{Name: in.Name, Type: in.Type, Min: in.Min, Max: in.Max, Values: in.Values}
	if len(in.Initial) == 0 || string(in.Initial) == "null" {
		return nil
	}
	var raw any
	if err := json.Unmarshal(in.Initial, &raw); err != nil {
		return fmt.Errorf("variable %q initial: %w", in.Name, err)
	}
	val, err := ValueFromAny(raw)
	if err != nil {
		return fmt.Errorf("variable %q initial: %w", in.Name, err)
	}
	v.Initial = val
	return nil
}

// Int64 returns a pointer to n. Convenience for building bounded variables.
func Int64(n int64) *int64 {
	return &n
}
