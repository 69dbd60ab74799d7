package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestConjuncts(t *testing.T) {
	atoms, complete, ok := Conjuncts("x > 5 && (3 >= y) && ready && !done && mode == 'OPEN' && true")
	require.True(t, ok)
	assert.True(t, complete)
	require.Len(t, atoms, 5)

	assert.Equal(t, "x", atoms[0].Variable)
	assert.Equal(t, OpGt, atoms[0].Op)
	assert.True(t, atoms[0].Value.Equals(cty.NumberIntVal(5)).True())

	assert.Equal(t, "y", atoms[1].Variable)
	assert.Equal(t, OpLe, atoms[1].Op)

	assert.Equal(t, Atom{Variable: "ready", Op: OpEq, Value: cty.True, Bare: true}, atoms[2])
	assert.Equal(t, Atom{Variable: "done", Op: OpEq, Value: cty.False, Bare: true}, atoms[3])

	assert.Equal(t, "mode", atoms[4].Variable)
	assert.Equal(t, `mode == "OPEN"`, atoms[4].String())
}

func TestConjunctsIncomplete(t *testing.T) {
	atoms, complete, ok := Conjuncts("x > 5 && (y < 1 || y > 3)")
	require.True(t, ok)
	assert.False(t, complete)
	require.Len(t, atoms, 1)
	assert.Equal(t, "x", atoms[0].Variable)

	atoms, complete, ok = Conjuncts("x + y > 2")
	require.True(t, ok)
	assert.False(t, complete)
	assert.Empty(t, atoms)
}

func TestConjunctsConstantExpressions(t *testing.T) {
	atoms, _, ok := Conjuncts("x < 2 * 5 - 1")
	require.True(t, ok)
	require.Len(t, atoms, 1)
	assert.Equal(t, "x < 9", atoms[0].String())
}

func TestConjunctsUnparseable(t *testing.T) {
	_, _, ok := Conjuncts("x >")
	assert.False(t, ok)
}
