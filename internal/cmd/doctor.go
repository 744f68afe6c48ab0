package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/reconcile"
	"github.com/Iron-Ham/graft/internal/styles"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check tools, configuration and repository state",
	Long: `Check that git and the configured multiplexer are installed, that the
working directory is inside a git repository, and report worktrees and
sessions that have drifted apart.

Exits non-zero when a required check fails.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	report := &reconcile.Report{}
	m, err := a.multiplexer()
	if err != nil {
		return err
	}
	report.Add(styles.StatusOK, "configuration", m.Name()+" backend")
	reconcile.CheckTools(report, a.exec, "git", m.Name())
	if report.Healthy() {
		diagnose(cmd.Context(), a, report)
	}

	report.Write(cmd.OutOrStdout(), stdoutTheme(cmd))
	if !report.Healthy() {
		return errors.New("doctor found problems")
	}
	return nil
}

func diagnose(ctx context.Context, a *app, report *reconcile.Report) {
	r, err := a.reconciler(ctx)
	if err != nil {
		report.Add(styles.StatusMiss, "git repository", err.Error())
		return
	}
	r.Diagnose(ctx, report)
}
