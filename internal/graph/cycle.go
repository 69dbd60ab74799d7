package graph

// HasCycle reports whether any cycle is reachable from nodes. It is a
// depth-first search over an explicit stack: a back edge to a node still on
// the current path signals a cycle. Depth is bounded by heap, not by the
// goroutine stack, so very large graphs are safe.
func HasCycle[N comparable](nodes []N, adj Adjacency[N]) bool {
	const (
		unvisited = iota
		onPath
		done
	)
	color := make(map[N]int, len(nodes))

	type frame struct {
		node N
		next int // index of the next successor to examine
	}

	for _, root := range nodes {
		if color[root] != unvisited {
			continue
		}
		stack := []frame{{node: root}}
		color[root] = onPath
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := adj[top.node]
			if top.next >= len(succ) {
				color[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			w := succ[top.next]
			top.next++
			switch color[w] {
			case onPath:
				return true
			case unvisited:
				color[w] = onPath
				stack = append(stack, frame{node: w})
			}
		}
	}
	return false
}

// StronglyConnectedComponents partitions the nodes reachable from nodes into
// strongly connected components using Tarjan's algorithm, run iteratively.
//
// Component order and member order are implementation details; callers
// should compare components as sets.
func StronglyConnectedComponents[N comparable](nodes []N, adj Adjacency[N]) [][]N {
	var (
		index   int
		stack   []N
		indices = make(map[N]int)
		lowlink = make(map[N]int)
		onStack = make(map[N]bool)
		sccs    [][]N
	)

	type frame struct {
		node N
		next int
	}

	visit := func(root N) {
		indices[root] = index
		lowlink[root] = index
		index++
		stack = append(stack, root)
		onStack[root] = true
		work := []frame{{node: root}}

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.node
			succ := adj[v]
			if top.next < len(succ) {
				w := succ[top.next]
				top.next++
				if _, seen := indices[w]; !seen {
					indices[w] = index
					lowlink[w] = index
					index++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, frame{node: w})
				} else if onStack[w] {
					lowlink[v] = min(lowlink[v], indices[w])
				}
				continue
			}

			// All successors done: v is a root if its lowlink is its own index.
			if lowlink[v] == indices[v] {
				var scc []N
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].node
				lowlink[parent] = min(lowlink[parent], lowlink[v])
			}
		}
	}

	for _, node := range nodes {
		if _, seen := indices[node]; !seen {
			visit(node)
		}
	}
	return sccs
}

// IsStronglyConnected reports whether every node reaches every other node.
// An empty node set is not strongly connected.
func IsStronglyConnected[N comparable](nodes []N, adj Adjacency[N]) bool {
	if len(nodes) == 0 {
		return false
	}
	sccs := StronglyConnectedComponents(nodes, adj)
	return len(sccs) == 1 && len(sccs[0]) == len(uniq(nodes))
}

// HasSelfLoop reports whether node has an edge to itself.
func HasSelfLoop[N comparable](node N, adj Adjacency[N]) bool {
	for _, w := range adj[node] {
		if w == node {
			return true
		}
	}
	return false
}

// CyclePath returns one concrete cycle through the members of a strongly
// connected component, starting and ending at component[0]. It is the
// shortest such cycle found by breadth-first search restricted to the
// component. A single node without a self loop yields nil.
func CyclePath[N comparable](component []N, adj Adjacency[N]) []N {
	if len(component) == 0 {
		return nil
	}
	start := component[0]
	if HasSelfLoop(start, adj) {
		return []N{start, start}
	}

	members := make(map[N]bool, len(component))
	for _, n := range component {
		members[n] = true
	}

	parent := make(map[N]N)
	seen := map[N]bool{}
	var queue []N
	for _, w := range adj[start] {
		if members[w] && !seen[w] {
			seen[w] = true
			parent[w] = start
			queue = append(queue, w)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if w == start {
				path := []N{start}
				for cur := v; cur != start; cur = parent[cur] {
					path = append(path, cur)
				}
				// path is start, v, ..., first hop; reverse the tail.
				for i, j := 1, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return append(path, start)
			}
			if members[w] && !seen[w] {
				seen[w] = true
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return nil
}

func uniq[N comparable](nodes []N) map[N]bool {
	set := make(map[N]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	return set
}
