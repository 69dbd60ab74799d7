package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/fsm"
	"github.com/roach88/efsmcheck/internal/ir"
)

// shortHash is the number of hash characters shown in human output.
const shortHash = 12

func verdict(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func abbreviate(hash string) string {
	if len(hash) > shortHash {
		return hash[:shortHash]
	}
	return hash
}

// WriteText writes the whole report as plain text.
func WriteText(w io.Writer, r *Report) error {
	tw := &textWriter{w: w}
	tw.printf("Model:  %s (%s)\n", r.Model, abbreviate(r.ModelHash))
	tw.printf("Run:    %s\n", r.RunID)
	tw.printf("Result: %s (%d errors, %d warnings, %d deadlocks)\n\n",
		verdict(r.Summary.Passed), r.Summary.Errors, r.Summary.Warnings,
		r.Summary.HardDeadlocks+r.Summary.ConditionalDeadlocks)
	if tw.err != nil {
		return tw.err
	}
	if err := WriteDiagnostics(w, r.Diagnostics()); err != nil {
		return err
	}
	tw.printf("\n")
	if err := WriteStructure(w, r.Structure); err != nil {
		return err
	}
	tw.printf("\n")
	if tw.err != nil {
		return tw.err
	}
	return WriteExploration(w, r.Exploration)
}

// WriteDiagnostics lists diagnostics one per line, suggestions indented
// below.
func WriteDiagnostics(w io.Writer, diags []ir.Diagnostic) error {
	tw := &textWriter{w: w}
	if len(diags) == 0 {
		tw.printf("Diagnostics: none\n")
		return tw.err
	}
	tw.printf("Diagnostics (%d):\n", len(diags))
	for _, d := range diags {
		code := ""
		if d.Code != "" {
			code = d.Code + " "
		}
		tw.printf("  %s%s\n", code, d.String())
		if d.Suggestion != "" {
			tw.printf("      suggestion: %s\n", d.Suggestion)
		}
	}
	return tw.err
}

// WriteStructure writes metrics, properties, and structural findings.
func WriteStructure(w io.Writer, res fsm.Result) error {
	tw := &textWriter{w: w}
	m, p := res.Metrics, res.Properties
	tw.printf("Structure: %s\n", verdict(res.Valid))
	tw.printf("  states %d, transitions %d, initial %d, final %d\n",
		m.TotalStates, m.TotalTransitions, m.InitialStates, m.FinalStates)

	complete := yesNo(p.IsComplete)
	if !p.CompletenessChecked {
		complete = "unchecked"
	}
	tw.printf("  deterministic %s, complete %s, all reachable %s, strongly connected %s\n",
		yesNo(p.IsDeterministic), complete, yesNo(p.AllStatesReachable), yesNo(p.IsStronglyConnected))
	tw.printf("  cycles %s, self-loops %s, max depth %d\n",
		yesNo(p.HasCycles), yesNo(p.HasSelfLoops), p.MaxDepth)

	for _, d := range res.Errors {
		tw.printf("  %s %s\n", d.Code, d.String())
	}
	for _, d := range res.Warnings {
		tw.printf("  %s %s\n", d.Code, d.String())
	}
	for _, c := range res.Issues.Cycles {
		tw.printf("  %s\n", c.Message)
	}
	return tw.err
}

// WriteExploration writes the explorer's status and every deadlock with
// its trace.
func WriteExploration(w io.Writer, res *engine.Result) error {
	tw := &textWriter{w: w}
	tw.printf("Exploration: %s\n", res.Status)
	tw.printf("  %d nodes explored, %d unique configurations, depth %d, %s\n",
		res.NodesExplored, res.UniqueConfigurations, res.MaxDepthReached, res.Elapsed)
	if res.Verified() {
		tw.printf("  verified deadlock-free\n")
	} else if !res.HasDeadlocks() && res.Status.Truncated() {
		tw.printf("  no deadlock found before the search stopped\n")
	} else if res.UniqueConfigurations == 0 {
		tw.printf("  no initial configuration to explore\n")
	}
	for _, d := range res.HardDeadlocks {
		tw.printf("  DEADLOCK at %s%s: %s\n", d.State, labelSuffix(d.State, d.Label), d.Reason)
		tw.printf("      trace: %s\n", traceText(d.Trace))
	}
	for _, d := range res.ConditionalDeadlocks {
		tw.printf("  waiting at %s%s: %s\n", d.State, labelSuffix(d.State, d.Label), d.Reason)
		tw.printf("      trace: %s\n", traceText(d.Trace))
	}
	for _, warning := range res.Bounds.Warnings {
		tw.printf("  warning: %s\n", warning)
	}
	return tw.err
}

func labelSuffix(id, label string) string {
	if label == "" || label == id {
		return ""
	}
	return " (" + label + ")"
}

func traceText(trace []string) string {
	if len(trace) == 0 {
		return "(initial)"
	}
	return strings.Join(trace, " → ")
}

// textWriter remembers the first write error so callers check once.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
