package graph

// Edge is a directed edge with its own identity, so parallel edges between
// the same pair of nodes stay distinct.
type Edge[N comparable] struct {
	ID     string
	Source N
	Target N
}

// Adjacency maps each node to its successors in edge order. Parallel edges
// appear as repeated successors.
type Adjacency[N comparable] map[N][]N

// BuildAdjacency returns the forward adjacency of edges. Multi-edges are
// preserved, not deduplicated.
func BuildAdjacency[N comparable](edges []Edge[N]) Adjacency[N] {
	adj := make(Adjacency[N])
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// BuildReverseAdjacency returns the adjacency with every edge reversed.
func BuildReverseAdjacency[N comparable](edges []Edge[N]) Adjacency[N] {
	adj := make(Adjacency[N])
	for _, e := range edges {
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// ReachableFrom returns every node reachable from start, start included.
// Breadth-first, O(V+E).
func ReachableFrom[N comparable](start N, adj Adjacency[N]) map[N]bool {
	visited := map[N]bool{start: true}
	queue := []N{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adj[node] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// HasPath reports whether b is reachable from a. A node always reaches
// itself.
func HasPath[N comparable](a, b N, adj Adjacency[N]) bool {
	if a == b {
		return true
	}
	visited := map[N]bool{a: true}
	queue := []N{a}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adj[node] {
			if next == b {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// CountSelfLoops counts edges whose source and target coincide.
func CountSelfLoops[N comparable](edges []Edge[N]) int {
	n := 0
	for _, e := range edges {
		if e.Source == e.Target {
			n++
		}
	}
	return n
}
