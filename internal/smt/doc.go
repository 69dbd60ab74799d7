// Package smt talks to the external SMT collaborator that decides guard
// satisfiability and completeness exactly.
//
// The collaborator is a black box reached over HTTP (HTTPSolver). Callers
// never use a Solver directly; they go through a Checker, which turns every
// failure into a verdict under a named FallbackPolicy, marks such verdicts
// as Assumed, logs them, and optionally memoizes real verdicts in a
// VerdictCache shared across runs (MemoryCache, RedisCache).
package smt
