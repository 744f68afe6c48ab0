package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/config"
	"github.com/Iron-Ham/graft/internal/logging"
	"github.com/Iron-Ham/graft/internal/mux"
	"github.com/Iron-Ham/graft/internal/reconcile"
	"github.com/Iron-Ham/graft/internal/styles"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// app bundles what every repository command needs.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	exec   command.Executor
	stdout io.Writer
	stderr io.Writer
}

// newExecutor is replaced in tests.
var newExecutor = func(logger *logging.Logger) command.Executor {
	return command.New(logger)
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLogger(cfg.Logging.LogDir(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Rotation())
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), stderrTheme(cmd).Warn(fmt.Sprintf("logging disabled: %v", err)))
		} else {
			logger = l
		}
	}

	return &app{
		cfg:    cfg,
		logger: logger.With("command", cmd.Name()),
		exec:   newExecutor(logger),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

// repo locates the repository containing the working directory.
func (a *app) repo(ctx context.Context) (*worktree.Git, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := worktree.FindRepoRoot(ctx, a.exec, cwd)
	if err != nil {
		return nil, err
	}
	return worktree.New(a.exec, root,
		worktree.WithRemote(a.cfg.Git.Remote),
		worktree.WithLogger(a.logger),
	), nil
}

func (a *app) multiplexer() (mux.Multiplexer, error) {
	return mux.New(a.cfg.Session.Backend, a.exec, a.cfg.MuxOptions())
}

func (a *app) reconciler(ctx context.Context) (*reconcile.Reconciler, error) {
	repo, err := a.repo(ctx)
	if err != nil {
		return nil, err
	}
	m, err := a.multiplexer()
	if err != nil {
		return nil, err
	}
	return reconcile.New(repo, m,
		reconcile.WithPolicy(a.cfg.Naming()),
		reconcile.WithLogger(a.logger),
		reconcile.WithWarnings(a.stderr, styles.New(a.stderr)),
	), nil
}

func stdoutTheme(cmd *cobra.Command) *styles.Theme {
	return styles.New(cmd.OutOrStdout())
}

func stderrTheme(cmd *cobra.Command) *styles.Theme {
	return styles.New(cmd.ErrOrStderr())
}
