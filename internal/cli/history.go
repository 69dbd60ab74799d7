package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/report"
	"github.com/roach88/efsmcheck/internal/store"
)

// HistoryOptions holds flags shared by the history commands.
type HistoryOptions struct {
	*RootOptions
	DB     string
	Model  string
	Status string
	Failed bool
	Limit  int
	Keep   int
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Long: `List runs recorded by analyze --db, newest first.

The database defaults to store.path from the config.

Examples:
  efsmcheck history --db runs.db
  efsmcheck history --db runs.db --model door --limit 5
  efsmcheck history --db runs.db --failed --status exhaustive
  efsmcheck history show run-0192... --db runs.db
  efsmcheck history codes --model door --db runs.db
  efsmcheck history prune --keep 10 --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "run history database (default store.path from config)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only runs of this model")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only runs whose exploration ended with this status")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only runs with findings")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Print a recorded report",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}

	codes := &cobra.Command{
		Use:           "codes",
		Short:         "Count runs reporting each diagnostic code",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryCodes(opts, cmd)
		},
	}
	codes.Flags().StringVar(&opts.Model, "model", "", "model name (required)")
	_ = codes.MarkFlagRequired("model")

	prune := &cobra.Command{
		Use:           "prune",
		Short:         "Keep only the newest runs of each model",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryPrune(opts, cmd)
		},
	}
	prune.Flags().IntVar(&opts.Keep, "keep", 10, "runs to keep per model")

	del := &cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete one recorded run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDelete(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(show, codes, prune, del)
	return cmd
}

// openHistory opens the configured database. A missing file is a command
// error rather than an empty history.
func (o *HistoryOptions) openHistory(cmd *cobra.Command, f *OutputFormatter) (*store.Store, error) {
	if err := o.ensure(cmd); err != nil {
		return nil, err
	}
	path := o.DB
	if path == "" {
		path = o.Config.Store.Path
	}
	if path == "" {
		_ = f.Error(ErrCodeUsage, "no database: pass --db or set store.path", nil)
		return nil, NewExitError(ExitCommandError, "no database configured")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}
	return st, nil
}

func storeError(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "querying history", err)
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, err := opts.openHistory(cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	filter := store.Filter{Model: opts.Model, Status: engine.Status(opts.Status), Limit: opts.Limit}
	if opts.Failed {
		passed := false
		filter.Passed = &passed
	}
	runs, err := st.ListRuns(cmd.Context(), filter)
	if err != nil {
		return storeError(f, err)
	}
	return f.Emit(runs, func(w io.Writer) error {
		return writeRunTable(w, runs)
	})
}

func writeRunTable(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tMODEL\tCREATED\tRESULT\tSTATUS\tERRORS\tWARNINGS\tDEADLOCKS")
	for _, r := range runs {
		result := "pass"
		if !r.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Model, r.CreatedAt.Format("2006-01-02 15:04:05"), result, r.Status,
			r.Errors, r.Warnings, r.HardDeadlocks+r.ConditionalDeadlocks)
	}
	return tw.Flush()
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, err := opts.openHistory(cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	rep, err := st.GetRun(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return storeError(f, err)
	}
	if f.Format == FormatMarkdown {
		_, err := io.WriteString(f.Writer, report.Markdown(rep))
		return err
	}
	return f.Emit(rep, func(w io.Writer) error {
		return report.WriteText(w, rep)
	})
}

func runHistoryCodes(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, err := opts.openHistory(cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.CodeHistory(cmd.Context(), opts.Model)
	if err != nil {
		return storeError(f, err)
	}
	return f.Emit(counts, func(w io.Writer) error {
		if len(counts) == 0 {
			_, err := fmt.Fprintf(w, "No diagnostics recorded for %s.\n", opts.Model)
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tRUNS")
		for _, c := range counts {
			fmt.Fprintf(tw, "%s\t%d\n", c.Code, c.Runs)
		}
		return tw.Flush()
	})
}

func runHistoryPrune(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Keep < 0 {
		_ = f.Error(ErrCodeUsage, fmt.Sprintf("--keep must be non-negative, got %d", opts.Keep), nil)
		return NewExitError(ExitCommandError, "invalid --keep")
	}
	st, err := opts.openHistory(cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Prune(cmd.Context(), opts.Keep)
	if err != nil {
		return storeError(f, err)
	}
	return f.Emit(map[string]int64{"deleted": n}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Deleted %d run(s)\n", n)
		return err
	})
}

func runHistoryDelete(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, err := opts.openHistory(cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRun(cmd.Context(), id); err != nil {
		return storeError(f, err)
	}
	return f.Emit(map[string]string{"deleted": id}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Deleted %s\n", id)
		return err
	})
}
