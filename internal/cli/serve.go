package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/efsmcheck/internal/server"
	"github.com/roach88/efsmcheck/internal/smt"
	"github.com/roach88/efsmcheck/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	DB     string
	Limits LimitFlags
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checker over HTTP",
		Long: `Serve the HTTP API until interrupted.

Routes:
  POST /v1/analyze    full report; recorded when a database is configured
  POST /v1/explore    deadlock exploration
  POST /v1/validate   analysis and structural validation
  GET  /v1/runs       recorded runs (with a database)
  GET  /v1/runs/{id}  one recorded report (with a database)
  GET  /healthz
  GET  /metrics       Prometheus metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default server.addr from config)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record analyses in this SQLite database")
	opts.Limits.register(cmd)
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	if err := opts.ensure(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)
	cfg := opts.Config

	metrics := server.NewMetrics()
	runner, closer := opts.newRunner(opts.Limits, smt.WithFallbackObserver(metrics.SolverFallback))
	defer closer.Close()

	serverOpts := []server.Option{
		server.WithRunner(runner),
		server.WithMetrics(metrics),
		server.WithLogger(opts.Logger),
	}

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening database", err)
		}
		defer st.Close()
		serverOpts = append(serverOpts, server.WithStore(st))
	}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(serverOpts...)
	if err := srv.ListenAndServe(ctx, addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout); err != nil {
		return WrapExitError(ExitCommandError, "serving", err)
	}
	return nil
}
