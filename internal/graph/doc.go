// Package graph provides directed-graph primitives over an abstract node
// type: adjacency construction, reachability, cycle detection, strongly
// connected components, and a longest-path heuristic.
//
// All functions are pure. Iteration order follows the order of the nodes
// and edges passed in, never map order, so results are reproducible.
package graph
