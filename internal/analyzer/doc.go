// Package analyzer runs the static checks over a model: variable
// definitions, guard and action validity, contradiction and overflow
// heuristics, guard overlap between competing transitions, and transitions
// stranded behind unreachable states.
//
// Every check is independent; Analyze unions their diagnostics. Without a
// solver the result is a pure function of the model.
package analyzer
