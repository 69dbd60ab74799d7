package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/analyzer"
	"github.com/roach88/efsmcheck/internal/report"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model>",
		Short: "Analyze variables, guards, and actions",
		Long: `Analyze a model's variable declarations, guard expressions, and actions.

Reports undefined variables, unparseable expressions, type mismatches,
contradictory or overlapping guards, and potential overflow. No
exploration is performed.

Exit codes:
  0 - no error diagnostics
  1 - at least one error diagnostic
  2 - the model could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	if err := opts.ensure(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	m, err := loadModel(f, path)
	if err != nil {
		return err
	}
	runner, closer := opts.newRunner(LimitFlags{})
	defer closer.Close()

	res := runner.Analyze(cmd.Context(), m)
	f.VerboseLog("Checked %d guards and %d actions", res.Stats.TotalGuards, res.Stats.TotalActions)

	if err := f.Emit(res, func(w io.Writer) error {
		return writeValidateText(w, m.Name, res)
	}); err != nil {
		return err
	}
	if res.HasErrors() {
		return NewExitError(ExitFailure, fmt.Sprintf("model %s has error diagnostics", m.Name))
	}
	return nil
}

func writeValidateText(w io.Writer, name string, res analyzer.Result) error {
	if err := report.WriteDiagnostics(w, res.Diagnostics); err != nil {
		return err
	}
	if res.HasErrors() {
		_, err := fmt.Fprintf(w, "✗ %s has errors\n", name)
		return err
	}
	_, err := fmt.Fprintf(w, "✓ %s is valid (%d/%d guards, %d/%d actions)\n",
		name, res.Stats.ValidGuards, res.Stats.TotalGuards, res.Stats.ValidActions, res.Stats.TotalActions)
	return err
}
