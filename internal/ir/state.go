package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// VariableState maps variable names to their current concrete values.
type VariableState map[string]Value

// Clone returns an independent copy. Values are immutable scalars, so a
// shallow copy is sufficient.
func (s VariableState) Clone() VariableState {
	out := make(VariableState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SortedNames returns variable names in canonical (UTF-16 code unit) order.
func (s VariableState) SortedNames() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	slices.SortFunc(names, compareKeysRFC8785)
	return names
}

// CanonicalKey renders the configuration (stateID, s) as
// "stateID|a:1,b:true,mode:OPEN". Two configurations are the same exactly
// when their keys are equal.
func (s VariableState) CanonicalKey(stateID string) string {
	var b strings.Builder
	b.WriteString(stateID)
	b.WriteByte('|')
	for i, name := range s.SortedNames() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte(':')
		if v := s[name]; v != nil {
			b.WriteString(v.String())
		}
	}
	return b.String()
}

// MarshalJSON renders the state as a JSON object with sorted keys, so the
// same valuation always serializes to the same bytes.
func (s VariableState) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.SortedNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalCanonicalString(name)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := MarshalValue(s[name])
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the state as canonical JSON; used in deadlock reasons.
func (s VariableState) String() string {
	data, err := s.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers become IntValue,
// booleans BoolValue, and strings EnumValue.
func (s *VariableState) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(VariableState, len(raw))
	for k, v := range raw {
		val, err := ValueFromAny(v)
		if err != nil {
			return fmt.Errorf("variable %q: %w", k, err)
		}
		out[k] = val
	}
	*s = out
	return nil
}
