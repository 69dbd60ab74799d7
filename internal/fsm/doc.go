// Package fsm checks the structural properties of a model's state graph:
// dead and unreachable states, determinism and completeness of the guards
// on each (state, event) group, and cycles.
//
// Determinism and completeness are decided by the SMT collaborator when a
// checker is supplied. Without one, determinism falls back to comparing
// guard text and completeness is not checked.
package fsm
