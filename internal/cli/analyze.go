package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/report"
	"github.com/roach88/efsmcheck/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Limits LimitFlags
	DB     string // run history database; overrides store.path
	Pretty bool   // render markdown for the terminal
	Width  int
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <model>",
		Short: "Run every check and print the full report",
		Long: `Run the variable and guard analysis, the structural validation, and the
deadlock exploration, and print one combined report.

With --db (or store.path in the config) the report is recorded in the run
history database.

Exit codes:
  0 - no error diagnostics and no deadlocks
  1 - findings
  2 - command error

Examples:
  efsmcheck analyze door.yaml
  efsmcheck analyze door.yaml --format markdown --pretty
  efsmcheck analyze door.yaml --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	opts.Limits.register(cmd)
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "render markdown output for the terminal")
	cmd.Flags().IntVar(&opts.Width, "width", 100, "word wrap width for --pretty")
	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
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

	rep, err := runner.Run(cmd.Context(), m)
	if err != nil {
		_ = f.Error(ErrCodeAnalysis, err.Error(), nil)
		return WrapExitError(ExitCommandError, "analysis failed", err)
	}

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = opts.Config.Store.Path
	}
	if dbPath != "" {
		if err := recordRun(cmd, dbPath, rep); err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording run", err)
		}
		f.VerboseLog("Recorded run %s in %s", rep.RunID, dbPath)
	}

	if err := writeReport(f, opts, rep); err != nil {
		return err
	}
	if rep.HasFindings() {
		return NewExitError(ExitFailure, fmt.Sprintf("model %s has findings", m.Name))
	}
	return nil
}

func writeReport(f *OutputFormatter, opts *AnalyzeOptions, rep *report.Report) error {
	switch f.Format {
	case FormatJSON:
		return f.Emit(rep, nil)
	case FormatMarkdown:
		md := report.Markdown(rep)
		if opts.Pretty {
			rendered, err := report.RenderTerminal(md, opts.Width)
			if err != nil {
				return WrapExitError(ExitCommandError, "rendering markdown", err)
			}
			md = rendered
		}
		_, err := io.WriteString(f.Writer, md)
		return err
	default:
		return report.WriteText(f.Writer, rep)
	}
}

func recordRun(cmd *cobra.Command, path string, rep *report.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(cmd.Context(), rep)
}
