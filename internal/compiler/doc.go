// Package compiler turns model documents into immutable ir.Model
// snapshots.
//
// A document is YAML, JSON, or CUE. Every format is first decoded into a
// generic map, then into the typed document schema with mapstructure, so
// all three share one set of field names and one validation pass:
//
//	name: handshake
//	states:
//	  - {id: S0, label: Idle, initial: true}
//	  - {id: S1, final: true}
//	events:
//	  - {name: syn, kind: output}
//	variables:
//	  - {name: retries, type: int, min: 0, max: 3, initial: 0}
//	transitions:
//	  - {from: S0, to: S1, event: syn, guard: "retries < 3", action: "retries = retries + 1"}
//
// A guard is either a string (a manual expression) or an object with a
// type of always_true, manual, or protocol. Transitions without an id are
// numbered t1, t2, ... after the highest numeric id already present.
//
// Load errors are *LoadError values with codes E001-E009. YAML documents
// report the source line of the offending element.
package compiler
