package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/compiler"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/report"
	"github.com/roach88/efsmcheck/internal/smt"
)

// CLI error codes. Model document errors carry the compiler's own codes.
const (
	ErrCodeConfig   = "E_CONFIG"    // configuration file unreadable or invalid
	ErrCodeStore    = "E_STORE"     // run history database error
	ErrCodeNotFound = "E_NOT_FOUND" // path or run not found
	ErrCodeUsage    = "E_USAGE"     // bad flag combination
	ErrCodeAnalysis = "E_ANALYSIS"  // model could not be canonicalized for a report
)

// LimitFlags are the exploration limit overrides shared by explore and
// analyze. Zero values keep the configured limit.
type LimitFlags struct {
	MaxDepth int
	MaxNodes int
	Timeout  time.Duration
}

func (l *LimitFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&l.MaxDepth, "max-depth", 0, "maximum exploration depth (default from config)")
	cmd.Flags().IntVar(&l.MaxNodes, "max-nodes", 0, "maximum configurations dequeued (default from config)")
	cmd.Flags().DurationVar(&l.Timeout, "timeout", 0, "exploration deadline (default from config)")
}

func (l LimitFlags) apply(base engine.Limits) engine.Limits {
	if l.MaxDepth > 0 {
		base.MaxDepth = l.MaxDepth
	}
	if l.MaxNodes > 0 {
		base.MaxNodes = l.MaxNodes
	}
	if l.Timeout > 0 {
		base.Timeout = l.Timeout
	}
	return base
}

// ensure resolves the configuration and logger when the command was run
// without the root command's pre-run hook.
func (o *RootOptions) ensure(cmd *cobra.Command) error {
	if o.Config != nil && o.Logger != nil {
		return nil
	}
	return o.resolve(cmd)
}

// loadModel compiles the model at path. Failures are written through the
// formatter and returned as command errors.
func loadModel(f *OutputFormatter, path string) (*ir.Model, error) {
	m, err := compiler.Load(path)
	if err == nil {
		f.VerboseLog("Loaded model %s: %d states, %d transitions, %d variables",
			m.Name, len(m.States), len(m.Transitions), len(m.Variables))
		return m, nil
	}

	var le *compiler.LoadError
	if errors.As(err, &le) {
		code := le.Code
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = f.Error(code, le.Error(), le)
		return nil, WrapExitError(ExitCommandError, "loading model", err)
	}
	_ = f.Error(compiler.ErrCodeRead, err.Error(), nil)
	return nil, WrapExitError(ExitCommandError, "loading model", err)
}

// newRunner builds a report runner from the configuration: limits with the
// flag overrides applied, the SMT checker when a solver is configured, and
// the CLI logger. The closer releases the checker's cache.
func (o *RootOptions) newRunner(limits LimitFlags, checkerOpts ...smt.CheckerOption) (*report.Runner, io.Closer) {
	checker, closer := o.Config.Checker(o.Logger, checkerOpts...)
	opts := []report.Option{
		report.WithLimits(limits.apply(o.Config.EngineLimits())),
		report.WithLogger(o.Logger),
	}
	if checker != nil {
		opts = append(opts, report.WithChecker(checker))
	}
	return report.New(opts...), closer
}
