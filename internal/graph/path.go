package graph

// LongestPath returns the depth of the deepest simple path found by a
// depth-first walk from start, counted in edges.
//
// This is a heuristic bound, not an exact longest-path algorithm. An edge
// back to a node already on the current path is counted once and then ends
// that branch, so on graphs with cycles the result underestimates the
// longest walk (which is unbounded) and may also miss longer simple paths
// that revisit a node via another branch ordering. Callers rely on it as a
// cheap depth estimate.
//
// Recursion depth is bounded by the number of distinct nodes on one path.
func LongestPath[N comparable](start N, adj Adjacency[N]) int {
	onPath := map[N]bool{}
	var walk func(N, int) int
	walk = func(node N, depth int) int {
		if onPath[node] {
			return depth
		}
		onPath[node] = true
		defer delete(onPath, node)

		deepest := depth
		for _, next := range adj[node] {
			if d := walk(next, depth+1); d > deepest {
				deepest = d
			}
		}
		return deepest
	}
	return walk(start, 0)
}
