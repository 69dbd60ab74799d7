package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Name: "handshake",
		States: []State{
			{ID: "S0", Initial: true},
			{ID: "S1", Final: true},
		},
		Transitions: []Transition{
			{ID: "t1", From: "S0", To: "S1", Event: "ack", Guard: Guard{Kind: GuardManual, Expression: "x < 3"}, Action: "x = x + 1"},
		},
		Events:    []Event{{Name: "ack", Kind: EventInput}},
		Variables: []Variable{{Name: "x", Type: VarInt, Min: Int64(0), Max: Int64(3), Initial: IntValue(0)}},
	}
}

func TestModelHashDeterminism(t *testing.T) {
	h1, err := sampleModel().Hash()
	require.NoError(t, err)
	h2, err := sampleModel().Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "model hash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestModelHashChangesWithContent(t *testing.T) {
	base, err := sampleModel().Hash()
	require.NoError(t, err)

	changed := sampleModel()
	changed.Transitions[0].Guard.Expression = "x < 2"
	h, err := changed.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, base, h)

	changed = sampleModel()
	changed.Variables[0].Initial = IntValue(1)
	h, err = changed.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, base, h, "initial values participate in the hash")
}

func TestContentHashDomainSeparation(t *testing.T) {
	payload := map[string]any{"a": 1}
	h1, err := ContentHash(DomainModel, payload)
	require.NoError(t, err)
	h2, err := ContentHash(DomainSolverVerdict, payload)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
