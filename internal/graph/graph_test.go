package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func edges(pairs ...[2]string) []Edge[string] {
	out := make([]Edge[string], len(pairs))
	for i, p := range pairs {
		out[i] = Edge[string]{ID: p[0] + "->" + p[1], Source: p[0], Target: p[1]}
	}
	return out
}

func TestBuildAdjacencyPreservesMultiEdges(t *testing.T) {
	adj := BuildAdjacency(edges([2]string{"a", "b"}, [2]string{"a", "b"}, [2]string{"b", "c"}))
	assert.Equal(t, []string{"b", "b"}, adj["a"])
	assert.Equal(t, []string{"c"}, adj["b"])
	assert.Empty(t, adj["c"])
}

func TestBuildReverseAdjacency(t *testing.T) {
	adj := BuildReverseAdjacency(edges([2]string{"a", "b"}, [2]string{"c", "b"}))
	assert.Equal(t, []string{"a", "c"}, adj["b"])
}

func TestReachableFrom(t *testing.T) {
	adj := BuildAdjacency(edges([2]string{"S0", "S1"}, [2]string{"S1", "S0"}, [2]string{"S2", "S0"}))

	reach := ReachableFrom("S0", adj)
	assert.Equal(t, map[string]bool{"S0": true, "S1": true}, reach)

	// start is always included, even with no edges
	assert.Equal(t, map[string]bool{"X": true}, ReachableFrom("X", adj))
}

func TestHasPath(t *testing.T) {
	adj := BuildAdjacency(edges([2]string{"a", "b"}, [2]string{"b", "c"}))
	assert.True(t, HasPath("a", "c", adj))
	assert.False(t, HasPath("c", "a", adj))
	assert.True(t, HasPath("z", "z", adj), "a node trivially reaches itself")
}

func TestCountSelfLoops(t *testing.T) {
	assert.Equal(t, 2, CountSelfLoops(edges([2]string{"a", "a"}, [2]string{"a", "b"}, [2]string{"b", "b"})))
	assert.Equal(t, 0, CountSelfLoops[string](nil))
}
