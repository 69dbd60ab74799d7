// Package harness runs conformance scenarios against the checker.
//
// A scenario names a model, either a file next to the scenario or an
// inline definition, and lists assertions about what a full analysis run
// must find.
//
// # Scenario Format
//
//	name: hard_deadlock
//	description: "A guard that can never hold strands S0"
//	model: ../models/stuck.yaml
//	limits:
//	  max_depth: 20
//	assertions:
//	  - type: deadlock
//	    state: S0
//	    variables: { x: 0 }
//	  - type: diagnostic
//	    code: W301
//	  - type: action
//	    action: "x = x + 5"
//	    from: { x: 0 }
//	    expect: { x: 1 }
//
// Instead of model, a scenario may carry the model document inline under
// definition, in the same YAML shape the compiler reads.
//
// # Assertion Types
//
//   - deadlock: a hard deadlock at state, optionally with variables and trace
//   - conditional_deadlock: a conditional deadlock at state waiting on inputs
//   - no_deadlock: the exploration found no deadlock of either kind
//   - reachable, unreachable: every listed state was or was not visited
//   - diagnostic: a diagnostic with code (and optionally kind) was reported,
//     exactly count times when count is set
//   - no_diagnostic: no diagnostic with code was reported
//   - status: the exploration ended with the given status
//   - verified: the model was or was not proven deadlock-free
//   - action: executing action from a valuation yields expect
//
// # Deterministic Testing
//
// Every run uses a fixed run id and a clock that does not move, so
// exploration never times out and snapshots are byte-identical across
// runs. Golden snapshots hold only the exploration outcome; the model hash
// and run id are left out.
package harness
