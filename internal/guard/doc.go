// Package guard parses and evaluates transition guards and actions against a
// typed variable environment.
//
// Expressions use HCL native expression syntax (&&, ||, !, comparisons,
// arithmetic, the ?: conditional, parentheses) evaluated over cty values,
// plus the bounded functions min, max, and abs. The grammar has no
// unbounded loops, so every evaluation terminates.
//
// All operations are total: malformed input yields diagnostics, never a
// panic or an error return.
package guard
