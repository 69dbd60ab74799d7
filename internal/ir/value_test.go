package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = IntValue(1)
	var _ Value = BoolValue(true)
	var _ Value = EnumValue("OPEN")
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		v    Value
		want VarType
	}{
		{IntValue(3), VarInt},
		{BoolValue(false), VarBool},
		{EnumValue("IDLE"), VarEnum},
	}
	for _, tt := range tests {
		got, err := TypeOf(tt.v)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValueFromAny(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    Value
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"int", 5, IntValue(5), false},
		{"int64", int64(-2), IntValue(-2), false},
		{"integral float", float64(7), IntValue(7), false},
		{"fractional float", 1.5, nil, true},
		{"json number", json.Number("12"), IntValue(12), false},
		{"json fraction", json.Number("1.2"), nil, true},
		{"bool", true, BoolValue(true), false},
		{"string", "OPEN", EnumValue("OPEN"), false},
		{"slice", []any{1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueFromAny(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariableStateCanonicalKey(t *testing.T) {
	s := VariableState{"mode": EnumValue("OPEN"), "count": IntValue(2), "ready": BoolValue(true)}
	assert.Equal(t, "S1|count:2,mode:OPEN,ready:true", s.CanonicalKey("S1"))
	assert.Equal(t, "S1|", VariableState{}.CanonicalKey("S1"))
}

func TestVariableStateCanonicalKeyIgnoresInsertionOrder(t *testing.T) {
	a := VariableState{}
	a["x"] = IntValue(1)
	a["y"] = IntValue(2)
	b := VariableState{}
	b["y"] = IntValue(2)
	b["x"] = IntValue(1)
	assert.Equal(t, a.CanonicalKey("S"), b.CanonicalKey("S"))
}

func TestVariableStateJSON(t *testing.T) {
	s := VariableState{"x": IntValue(0), "flag": BoolValue(false), "mode": EnumValue("IDLE")}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"flag":false,"mode":"IDLE","x":0}`, string(data))
	assert.Equal(t, `{"flag":false,"mode":"IDLE","x":0}`, s.String())

	var back VariableState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestVariableStateClone(t *testing.T) {
	s := VariableState{"x": IntValue(0)}
	c := s.Clone()
	c["x"] = IntValue(9)
	assert.Equal(t, IntValue(0), s["x"])
}

func TestVariableJSONInitial(t *testing.T) {
	v := Variable{Name: "x", Type: VarInt, Min: Int64(0), Max: Int64(3), Initial: IntValue(2)}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","type":"int","min":0,"max":3,"initial":2}`, string(data))

	var back Variable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)
}

func TestGuardIsAlwaysTrue(t *testing.T) {
	assert.True(t, Guard{}.IsAlwaysTrue())
	assert.True(t, Guard{Kind: GuardManual, Expression: "  "}.IsAlwaysTrue())
	assert.False(t, Guard{Kind: GuardManual, Expression: "x > 1"}.IsAlwaysTrue())
	assert.True(t, Guard{Kind: GuardProtocol}.IsAlwaysTrue())
	assert.False(t, Guard{Kind: GuardProtocol, Conditions: []FieldCondition{{FieldID: "f1", Operator: OpEquals}}}.IsAlwaysTrue())
}
