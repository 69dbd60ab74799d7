package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/roach88/efsmcheck/internal/ir"
)

// Markdown renders the report as a markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", r.Model, verdict(r.Summary.Passed))
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Model hash: `%s`\n", abbreviate(r.ModelHash))
	fmt.Fprintf(&b, "- Errors: %d, warnings: %d, infos: %d\n", r.Summary.Errors, r.Summary.Warnings, r.Summary.Infos)
	fmt.Fprintf(&b, "- Exploration: %s\n\n", r.Summary.Status)

	b.WriteString("## Diagnostics\n\n")
	diags := r.Diagnostics()
	if len(diags) == 0 {
		b.WriteString("No diagnostics.\n\n")
	} else {
		b.WriteString("| Severity | Code | Kind | Location | Message |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				d.Severity, d.Code, d.Kind, cell(d.Location.String()), cell(message(d)))
		}
		b.WriteString("\n")
	}

	s := r.Structure
	b.WriteString("## Structure\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| States | %d |\n", s.Metrics.TotalStates)
	fmt.Fprintf(&b, "| Transitions | %d |\n", s.Metrics.TotalTransitions)
	fmt.Fprintf(&b, "| Deterministic | %s |\n", yesNo(s.Properties.IsDeterministic))
	if s.Properties.CompletenessChecked {
		fmt.Fprintf(&b, "| Complete | %s |\n", yesNo(s.Properties.IsComplete))
	}
	fmt.Fprintf(&b, "| All states reachable | %s |\n", yesNo(s.Properties.AllStatesReachable))
	fmt.Fprintf(&b, "| Cycles | %s |\n", yesNo(s.Properties.HasCycles))
	fmt.Fprintf(&b, "| Max depth | %d |\n\n", s.Properties.MaxDepth)
	for _, c := range s.Issues.Cycles {
		fmt.Fprintf(&b, "- %s\n", c.Message)
	}
	if len(s.Issues.Cycles) > 0 {
		b.WriteString("\n")
	}

	x := r.Exploration
	b.WriteString("## Exploration\n\n")
	fmt.Fprintf(&b, "Status **%s** after %d nodes (%d unique configurations, depth %d).\n\n",
		x.Status, x.NodesExplored, x.UniqueConfigurations, x.MaxDepthReached)
	for _, d := range x.HardDeadlocks {
		fmt.Fprintf(&b, "- **Deadlock** at `%s`: %s  \n  trace: %s\n", d.State, d.Reason, traceText(d.Trace))
	}
	for _, d := range x.ConditionalDeadlocks {
		fmt.Fprintf(&b, "- **Waiting** at `%s`: %s  \n  trace: %s\n", d.State, d.Reason, traceText(d.Trace))
	}
	for _, w := range x.Bounds.Warnings {
		fmt.Fprintf(&b, "- Warning: %s\n", w)
	}
	return b.String()
}

func message(d ir.Diagnostic) string {
	if d.Suggestion == "" {
		return d.Message
	}
	return d.Message + ". " + d.Suggestion
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderTerminal styles markdown for a terminal. width wraps lines; zero
// keeps glamour's default.
func RenderTerminal(markdown string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
