package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/report"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <model>",
		Short: "Validate the state graph",
		Long: `Validate a model's structure: initial and final states, dead and
unreachable states, determinism, completeness, and cycles.

Exit codes:
  0 - structurally valid
  1 - structural errors found
  2 - the model could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	res := runner.Validate(cmd.Context(), m)
	if err := f.Emit(res, func(w io.Writer) error {
		return report.WriteStructure(w, res)
	}); err != nil {
		return err
	}
	if !res.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("model %s has structural errors", m.Name))
	}
	return nil
}
