package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/report"
)

// ExploreOptions holds flags for the explore command.
type ExploreOptions struct {
	*RootOptions
	Limits LimitFlags
}

// NewExploreCommand creates the explore command.
func NewExploreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExploreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explore <model>",
		Short: "Search for deadlocks",
		Long: `Explore every reachable (state, valuation) configuration breadth first
and report hard and conditional deadlocks with the transition path that
reaches them.

A run that hits a limit still reports every deadlock it found; the status
says which limit stopped it.

Exit codes:
  0 - no deadlock found
  1 - at least one deadlock
  2 - the model could not be loaded

Examples:
  efsmcheck explore door.yaml
  efsmcheck explore door.yaml --max-depth 200 --timeout 30s`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(opts, args[0], cmd)
		},
	}
	opts.Limits.register(cmd)
	return cmd
}

func runExplore(opts *ExploreOptions, path string, cmd *cobra.Command) error {
	if err := opts.ensure(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	m, err := loadModel(f, path)
	if err != nil {
		return err
	}
	runner, closer := opts.newRunner(opts.Limits)
	defer closer.Close()

	res := runner.Explore(cmd.Context(), m)
	if err := f.Emit(res, func(w io.Writer) error {
		return report.WriteExploration(w, res)
	}); err != nil {
		return err
	}
	if res.HasDeadlocks() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d hard and %d conditional deadlocks in %s",
			len(res.HardDeadlocks), len(res.ConditionalDeadlocks), m.Name))
	}
	return nil
}
