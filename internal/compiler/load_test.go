package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/ir"
)

func TestLoadDoorYAML(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "door.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "door", m.Name)
	require.Len(t, m.States, 3)
	assert.True(t, m.States[0].Initial)
	assert.True(t, m.States[2].Final)
	assert.Equal(t, "Open", m.States[1].Label)

	require.Len(t, m.Events, 3)
	assert.Equal(t, ir.EventInternal, m.Events[2].Kind)

	require.Len(t, m.Variables, 2)
	attempts := m.Variables[0]
	assert.Equal(t, ir.VarInt, attempts.Type)
	assert.Equal(t, ir.Int64(0), attempts.Min)
	assert.Equal(t, ir.Int64(3), attempts.Max)
	assert.Equal(t, ir.IntValue(0), attempts.Initial)
	assert.Equal(t, ir.EnumValue("manual"), m.Variables[1].Initial)
	assert.Equal(t, []string{"manual", "auto"}, m.Variables[1].Values)

	require.Len(t, m.Transitions, 3)
	assert.Equal(t, ir.Guard{Kind: ir.GuardManual, Expression: "attempts < 3"}, m.Transitions[0].Guard)
	assert.Equal(t, "attempts = attempts + 1", m.Transitions[0].Action)
	assert.Equal(t, ir.Guard{Kind: ir.GuardAlwaysTrue}, m.Transitions[1].Guard)
	assert.Equal(t, ir.Guard{Kind: ir.GuardManual, Expression: "attempts == 3"}, m.Transitions[2].Guard)
}

func TestLoadGeneratesMissingTransitionIDs(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "door.yaml"))
	require.NoError(t, err)

	var got []string
	for _, tr := range m.Transitions {
		got = append(got, tr.ID)
	}
	assert.Equal(t, []string{"t1", "t8", "t7"}, got)
}

func TestLoadFormatsAgree(t *testing.T) {
	yamlModel, err := Load(filepath.Join("testdata", "door.yaml"))
	require.NoError(t, err)

	for _, name := range []string{"door.json", "door.cue"} {
		t.Run(name, func(t *testing.T) {
			m, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, yamlModel, m)

			want, err := yamlModel.Hash()
			require.NoError(t, err)
			got, err := m.Hash()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadProtocolGuards(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "protocol.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "handshake", m.Name)
	require.Len(t, m.Fields, 1)
	assert.Equal(t, []ir.FieldOption{{Name: "SYN", Value: 2}, {Name: "ACK", Value: 16}}, m.Fields[0].Options)

	require.Len(t, m.Transitions, 2)
	assert.Equal(t, "t1", m.Transitions[0].ID)
	assert.Equal(t, "t2", m.Transitions[1].ID)

	g := m.Transitions[0].Guard
	assert.Equal(t, ir.GuardProtocol, g.Kind)
	assert.Equal(t, []ir.FieldCondition{{FieldID: "f1", Operator: "equals", Option: "SYN"}}, g.Conditions)

	g = m.Transitions[1].Guard
	assert.Equal(t, []ir.FieldCondition{{FieldID: "f1", Operator: "greater_or_equal", Value: ir.Int64(16)}}, g.Conditions)
}

func TestLoadDefaultsNameToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "turnstile.yml")
	require.NoError(t, os.WriteFile(path, []byte("states:\n  - id: s0\n    initial: true\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "turnstile", m.Name)
	assert.Empty(t, m.Transitions)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeRead))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.yaml", FormatYAML},
		{"a.YML", FormatYAML},
		{"dir/a.json", FormatJSON},
		{"a.cue", FormatCUE},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFromPath("model.toml")
	assert.True(t, IsLoadError(err, ErrCodeFormat))
}

func TestParseEmptyDocument(t *testing.T) {
	m, err := Parse([]byte(""), FormatYAML, "empty")
	require.NoError(t, err)
	assert.Equal(t, "empty", m.Name)
	assert.Empty(t, m.States)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), Format("toml"), "x")
	assert.True(t, IsLoadError(err, ErrCodeFormat))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
		code   string
		path   string
		line   int
	}{
		{
			name:   "yaml syntax",
			format: FormatYAML,
			doc:    "states:\n  - id: a\n   bad: [\n",
			code:   ErrCodeSyntax,
		},
		{
			name:   "json syntax",
			format: FormatJSON,
			doc:    `{"states": [}`,
			code:   ErrCodeSyntax,
		},
		{
			name:   "cue syntax",
			format: FormatCUE,
			doc:    "model: {states: [\n",
			code:   ErrCodeSyntax,
		},
		{
			name:   "cue incomplete value",
			format: FormatCUE,
			doc:    "model: {name: string}\n",
			code:   ErrCodeSyntax,
		},
		{
			name:   "unknown key",
			format: FormatYAML,
			doc:    "states: []\nnodes: []\n",
			code:   ErrCodeSchema,
		},
		{
			name:   "fractional bound",
			format: FormatJSON,
			doc:    `{"variables": [{"name": "x", "type": "int", "min": 0.5}]}`,
			code:   ErrCodeSchema,
		},
		{
			name:   "missing state id",
			format: FormatYAML,
			doc:    "states:\n  - label: nameless\n",
			code:   ErrCodeSchema,
			path:   "states[0].id",
		},
		{
			name:   "duplicate state",
			format: FormatYAML,
			doc:    "states:\n  - id: a\n  - id: a\n",
			code:   ErrCodeDuplicateID,
			path:   "states[1].id",
			line:   3,
		},
		{
			name:   "duplicate transition",
			format: FormatYAML,
			doc: "states:\n  - id: a\n" +
				"transitions:\n" +
				"  - id: t1\n    from: a\n    to: a\n" +
				"  - id: t1\n    from: a\n    to: a\n",
			code: ErrCodeDuplicateID,
			path: "transitions[1].id",
			line: 7,
		},
		{
			name:   "duplicate event",
			format: FormatYAML,
			doc:    "events:\n  - name: go\n    kind: input\n  - name: go\n    kind: output\n",
			code:   ErrCodeDuplicateID,
			path:   "events[1].name",
			line:   4,
		},
		{
			name:   "duplicate field",
			format: FormatJSON,
			doc:    `{"fields": [{"id": "f"}, {"id": "f"}]}`,
			code:   ErrCodeDuplicateID,
			path:   "fields[1].id",
		},
		{
			name:   "unknown target state",
			format: FormatYAML,
			doc: "states:\n  - id: a\n" +
				"transitions:\n" +
				"  - from: a\n    to: b\n",
			code: ErrCodeUnknownState,
			path: "transitions[0].to",
			line: 5,
		},
		{
			name:   "unknown source state",
			format: FormatJSON,
			doc:    `{"states": [{"id": "a"}], "transitions": [{"from": "z", "to": "a"}]}`,
			code:   ErrCodeUnknownState,
			path:   "transitions[0].from",
		},
		{
			name:   "bad event kind",
			format: FormatYAML,
			doc:    "events:\n  - name: tick\n    kind: clock\n",
			code:   ErrCodeInvalidEventKind,
			path:   "events[0].kind",
			line:   3,
		},
		{
			name:   "nameless variable",
			format: FormatYAML,
			doc:    "variables:\n  - type: int\n",
			code:   ErrCodeInvalidVariable,
			path:   "variables[0].name",
		},
		{
			name:   "fractional initial",
			format: FormatYAML,
			doc:    "variables:\n  - name: x\n    type: int\n    initial: 1.5\n",
			code:   ErrCodeInvalidVariable,
			path:   "variables[0].initial",
			line:   4,
		},
		{
			name:   "unknown guard type",
			format: FormatYAML,
			doc: "states:\n  - id: a\n" +
				"transitions:\n" +
				"  - from: a\n    to: a\n    guard:\n      type: fuzzy\n",
			code: ErrCodeInvalidGuard,
			path: "transitions[0].guard.type",
			line: 7,
		},
		{
			name:   "unknown condition field",
			format: FormatJSON,
			doc: `{"states": [{"id": "a"}], "transitions": [{"from": "a", "to": "a",
				"guard": {"type": "protocol", "conditions": [{"field_id": "nope", "operator": "equals", "value": 1}]}}]}`,
			code: ErrCodeInvalidGuard,
			path: "transitions[0].guard.conditions[0].field_id",
		},
		{
			name:   "unknown operator",
			format: FormatJSON,
			doc: `{"states": [{"id": "a"}], "fields": [{"id": "f"}], "transitions": [{"from": "a", "to": "a",
				"guard": {"type": "protocol", "conditions": [{"field_id": "f", "operator": "approx", "value": 1}]}}]}`,
			code: ErrCodeInvalidGuard,
			path: "transitions[0].guard.conditions[0].operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format, "test")
			require.Error(t, err)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code, le.Error())
			if tt.path != "" {
				assert.Equal(t, tt.path, le.Path)
			}
			if tt.line != 0 {
				assert.Equal(t, tt.line, le.Line)
			}
		})
	}
}

func TestParseYAMLSyntaxLine(t *testing.T) {
	_, err := Parse([]byte("states:\n  - id: a\n  - id: [b\n"), FormatYAML, "x")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeSyntax, le.Code)
	assert.Positive(t, le.Line)
}

func TestGuardWithoutTypeIsInferred(t *testing.T) {
	doc := "states:\n  - id: a\n" +
		"variables:\n  - name: x\n    type: int\n" +
		"transitions:\n" +
		"  - from: a\n    to: a\n    guard:\n      expression: x > 1\n" +
		"  - from: a\n    to: a\n    guard:\n      expression: \"  \"\n"
	m, err := Parse([]byte(doc), FormatYAML, "x")
	require.NoError(t, err)
	assert.Equal(t, ir.GuardManual, m.Transitions[0].Guard.Kind)
	assert.Equal(t, ir.GuardAlwaysTrue, m.Transitions[1].Guard.Kind)
}
