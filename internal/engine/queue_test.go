package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/ir"
)

func TestConfigQueue_FIFO(t *testing.T) {
	q := newConfigQueue()
	for _, id := range []string{"A", "B", "C"} {
		q.Push(configuration{state: id})
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		c, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, c.state)
	}
	assert.Equal(t, 0, q.Len())
}

func TestConfigQueue_PopEmpty(t *testing.T) {
	q := newConfigQueue()
	_, ok := q.Pop()
	assert.False(t, ok, "pop from empty queue should return false")
}

func TestConfigQueue_PopZeroesSlot(t *testing.T) {
	q := newConfigQueue()
	q.Push(configuration{state: "A", variables: ir.VariableState{"x": ir.IntValue(1)}})
	q.Push(configuration{state: "B"})
	backing := q.items

	_, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, configuration{}, backing[0], "popped slot must not retain the valuation")
}

func TestConfigQueue_ReuseAfterDrain(t *testing.T) {
	q := newConfigQueue()
	q.Push(configuration{state: "A"})
	_, _ = q.Pop()
	q.Push(configuration{state: "B"})

	c, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "B", c.state)
}

func TestConfigurationKey(t *testing.T) {
	a := configuration{state: "S0", variables: ir.VariableState{"b": ir.BoolValue(true), "a": ir.IntValue(2)}}
	b := configuration{state: "S0", variables: ir.VariableState{"a": ir.IntValue(2), "b": ir.BoolValue(true)}}
	assert.Equal(t, "S0|a:2,b:true", a.key())
	assert.Equal(t, a.key(), b.key())
}
