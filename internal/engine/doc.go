// Package engine implements the configuration explorer: a bounded
// breadth-first search over (state, variable valuation) pairs that finds
// deadlocks.
//
// ARCHITECTURE:
//
// Single-threaded search:
// Each call to Explorer.Explore owns a FIFO queue, a visited set, and a
// node budget. Nothing is shared between runs, so concurrent explorations
// of different models only need separate Explorers.
//
// Step:
//  1. Check the deadline, cancellation, and node budget
//  2. Dequeue a configuration; skip it if already visited
//  3. Stop expanding at MaxDepth (never reported as a deadlock)
//  4. Fire every enabled transition and enqueue the successors
//  5. Classify a non-final configuration with no progress as a deadlock
//
// Event semantics:
// Output, internal, and timeout events are available whenever their guard
// holds. Input events are explored but never count as progress: a state
// that can only move on input is a conditional deadlock, one that cannot
// move at all is a hard deadlock.
//
// Limits:
// Exploration halts early on any limit and still returns its partial
// result. Result.Status tells "verified deadlock-free" apart from "nothing
// found within bounds".
package engine
