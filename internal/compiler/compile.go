package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/efsmcheck/internal/ids"
	"github.com/roach88/efsmcheck/internal/ir"
)

// transitionIDPrefix prefixes generated transition ids.
const transitionIDPrefix = "t"

// conditionOperators is the closed set of protocol condition operators.
var conditionOperators = map[string]bool{
	"equals":           true,
	"not_equals":       true,
	"greater_than":     true,
	"less_than":        true,
	"greater_or_equal": true,
	"less_or_equal":    true,
}

// compile validates a decoded document and builds the model. It stops at
// the first error.
func compile(doc *document, lines lineIndex) (*ir.Model, error) {
	c := &compilation{doc: doc, lines: lines}
	m := &ir.Model{Name: doc.Name}

	steps := []func(*ir.Model) error{
		c.states,
		c.events,
		c.fields,
		c.variables,
		c.transitions,
	}
	for _, step := range steps {
		if err := step(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type compilation struct {
	doc   *document
	lines lineIndex
}

func (c *compilation) fail(code, path, format string, args ...any) *LoadError {
	return &LoadError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Line:    c.lines.line(path),
	}
}

func (c *compilation) states(m *ir.Model) error {
	seen := map[string]bool{}
	for i, s := range c.doc.States {
		path := fmt.Sprintf("states[%d]", i)
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return c.fail(ErrCodeSchema, path+".id", "state id is required")
		}
		if seen[id] {
			return c.fail(ErrCodeDuplicateID, path+".id", "duplicate state id %q", id)
		}
		seen[id] = true
		m.States = append(m.States, ir.State{
			ID:       id,
			Label:    s.Label,
			Initial:  s.Initial,
			Final:    s.Final,
			Metadata: s.Metadata,
		})
	}
	return nil
}

func (c *compilation) events(m *ir.Model) error {
	seen := map[string]bool{}
	for i, e := range c.doc.Events {
		path := fmt.Sprintf("events[%d]", i)
		if e.Name == "" {
			return c.fail(ErrCodeSchema, path+".name", "event name is required")
		}
		if seen[e.Name] {
			return c.fail(ErrCodeDuplicateID, path+".name", "duplicate event %q", e.Name)
		}
		seen[e.Name] = true
		kind := ir.EventKind(e.Kind)
		switch kind {
		case ir.EventInput, ir.EventOutput, ir.EventInternal, ir.EventTimeout:
		default:
			return c.fail(ErrCodeInvalidEventKind, path+".kind",
				"event %q has kind %q (want input, output, internal, or timeout)", e.Name, e.Kind)
		}
		m.Events = append(m.Events, ir.Event{Name: e.Name, Kind: kind})
	}
	return nil
}

func (c *compilation) fields(m *ir.Model) error {
	seen := map[string]bool{}
	for i, f := range c.doc.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		if f.ID == "" {
			return c.fail(ErrCodeSchema, path+".id", "field id is required")
		}
		if seen[f.ID] {
			return c.fail(ErrCodeDuplicateID, path+".id", "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		field := ir.Field{ID: f.ID, Name: f.Name}
		if field.Name == "" {
			field.Name = f.ID
		}
		for _, o := range f.Options {
			field.Options = append(field.Options, ir.FieldOption{Name: o.Name, Value: o.Value})
		}
		m.Fields = append(m.Fields, field)
	}
	return nil
}

// variables copies declarations through. Type, bound, and duplicate
// problems are the analyzer's to report; only a missing name or an initial
// value that is not a scalar stops compilation.
func (c *compilation) variables(m *ir.Model) error {
	for i, v := range c.doc.Variables {
		path := fmt.Sprintf("variables[%d]", i)
		if v.Name == "" {
			return c.fail(ErrCodeInvalidVariable, path+".name", "variable name is required")
		}
		initial, err := ir.ValueFromAny(v.Initial)
		if err != nil {
			return c.fail(ErrCodeInvalidVariable, path+".initial", "variable %s: %v", v.Name, err)
		}
		m.Variables = append(m.Variables, ir.Variable{
			Name:    v.Name,
			Type:    ir.VarType(v.Type),
			Min:     v.Min,
			Max:     v.Max,
			Values:  v.Values,
			Initial: initial,
		})
	}
	return nil
}

func (c *compilation) transitions(m *ir.Model) error {
	states := m.StateByID()
	fields := map[string]bool{}
	for _, f := range m.Fields {
		fields[f.ID] = true
	}

	existing := make([]string, 0, len(c.doc.Transitions))
	for _, t := range c.doc.Transitions {
		if t.ID != "" {
			existing = append(existing, t.ID)
		}
	}
	seq := ids.SeedFromIDs(transitionIDPrefix, existing)

	seen := map[string]bool{}
	for i, t := range c.doc.Transitions {
		path := fmt.Sprintf("transitions[%d]", i)
		id := t.ID
		if id == "" {
			id = seq.Generate()
		}
		if seen[id] {
			return c.fail(ErrCodeDuplicateID, path+".id", "duplicate transition id %q", id)
		}
		seen[id] = true

		if _, ok := states[t.From]; !ok {
			return c.fail(ErrCodeUnknownState, path+".from", "transition %s leaves unknown state %q", id, t.From)
		}
		if _, ok := states[t.To]; !ok {
			return c.fail(ErrCodeUnknownState, path+".to", "transition %s enters unknown state %q", id, t.To)
		}
		g, err := c.guard(t.Guard, fields, path+".guard")
		if err != nil {
			return err
		}
		m.Transitions = append(m.Transitions, ir.Transition{
			ID:     id,
			From:   t.From,
			To:     t.To,
			Event:  t.Event,
			Guard:  g,
			Action: t.Action,
		})
	}
	return nil
}

func (c *compilation) guard(g guardDoc, fields map[string]bool, path string) (ir.Guard, error) {
	kind := ir.GuardKind(g.Type)
	if kind == "" {
		kind = ir.GuardAlwaysTrue
		if strings.TrimSpace(g.Expression) != "" {
			kind = ir.GuardManual
		}
	}

	switch kind {
	case ir.GuardAlwaysTrue:
		return ir.Guard{Kind: kind}, nil
	case ir.GuardManual:
		return ir.Guard{Kind: kind, Expression: g.Expression}, nil
	case ir.GuardProtocol:
		out := ir.Guard{Kind: kind}
		for i, cond := range g.Conditions {
			cpath := fmt.Sprintf("%s.conditions[%d]", path, i)
			if !fields[cond.FieldID] {
				return ir.Guard{}, c.fail(ErrCodeInvalidGuard, cpath+".field_id", "unknown field %q", cond.FieldID)
			}
			if !conditionOperators[cond.Operator] {
				return ir.Guard{}, c.fail(ErrCodeInvalidGuard, cpath+".operator", "unknown operator %q", cond.Operator)
			}
			out.Conditions = append(out.Conditions, ir.FieldCondition{
				FieldID:  cond.FieldID,
				Operator: cond.Operator,
				Value:    cond.Value,
				Option:   cond.Option,
			})
		}
		return out, nil
	default:
		return ir.Guard{}, c.fail(ErrCodeInvalidGuard, path+".type",
			"unknown guard type %q (want always_true, manual, or protocol)", g.Type)
	}
}
