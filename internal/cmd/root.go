package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Iron-Ham/graft/internal/config"
	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/reconcile"
)

var rootCmd = &cobra.Command{
	Use:   "graft <branch>",
	Short: "Open a branch in its own worktree and multiplexer session",
	Long: `graft opens a git branch in a dedicated worktree under .worktrees/ and
attaches a zellij (or tmux) session to it.

The branch is used if it exists locally, fetched if it only exists on the
remote, and created from HEAD otherwise. The worktree is reused when healthy
and repaired when git and the filesystem disagree. The session is named
wt-<branch>, with "/" replaced by "-".

graft waits for the multiplexer to exit and exits with its status. With
--ephemeral the session, worktree and (with --delete-branch) the branch are
removed afterwards.`,
	Example: `  graft feature/login
  graft -e spike/idea --delete-branch
  graft rm feature/login --delete-branch
  graft ls --prune-sessions`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOpen,
}

var (
	cfgFile          string
	openEphemeral    bool
	openDeleteBranch bool
	openNoTTYCheck   bool
)

// ExitCodeError carries a non-zero exit status out of a command without a
// diagnostic of its own.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var exit *ExitCodeError
	if errors.As(err, &exit) {
		// A multiplexer killed by a signal has no exit status of its own.
		if exit.Code < 0 {
			return 1
		}
		return exit.Code
	}
	theme := stderrTheme(rootCmd)
	fmt.Fprintln(rootCmd.ErrOrStderr(), theme.Err(err.Error()))
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(rootCmd.ErrOrStderr(), theme.Muted.Render("hint: "+hint))
	}
	return 1
}

// errorHint suggests a next step for a fatal error. Errors that graft did
// not classify itself get no hint.
func errorHint(err error) string {
	switch {
	case errors.Is(err, errors.ErrNotGitRepository):
		return "run graft from inside a git repository"
	case !errors.IsUserFacing(err):
		return ""
	case errors.Is(err, errors.ErrToolMissing):
		return "'graft doctor' reports which tools are missing from PATH"
	case errors.IsExecution(err):
		return "'graft doctor' checks that git and the multiplexer can run"
	case errors.Is(err, errors.ErrWorktreeNotFound):
		return "'graft ls' lists the existing worktrees"
	case errors.Is(err, errors.ErrBranchNotFound):
		return "'git branch' lists the local branches"
	case errors.Is(err, errors.ErrUnknownBackend):
		return "'graft config set session.backend tmux' selects another multiplexer"
	case errors.Is(err, errors.ErrInvalidInput):
		return "'graft --help' describes the accepted arguments"
	}
	return ""
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/graft/config.yaml)")

	rootCmd.Flags().BoolVarP(&openEphemeral, "ephemeral", "e", false, "Remove the session and worktree when the multiplexer exits")
	rootCmd.Flags().BoolVar(&openDeleteBranch, "delete-branch", false, "With --ephemeral, also delete the local branch")
	rootCmd.Flags().BoolVar(&openNoTTYCheck, "no-tty-check", false, "Launch even when stdin is not a terminal")
}

func initConfig() {
	viper.Reset()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// Replace dots with underscores for nested keys in env vars
	// e.g., GRAFT_SESSION_BACKEND for session.backend
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

func runOpen(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	branch := args[0]

	if openDeleteBranch && !openEphemeral {
		fmt.Fprintln(cmd.ErrOrStderr(), stderrTheme(cmd).Warn("--delete-branch has no effect without --ephemeral; use 'graft rm --delete-branch' to delete a branch"))
	}
	if !openNoTTYCheck && !stdinIsTerminal() {
		return errors.Wrap(errors.ErrNotATerminal, "the multiplexer needs an interactive terminal (use --no-tty-check to override)")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.reconciler(cmd.Context())
	if err != nil {
		return err
	}

	// The multiplexer owns the terminal until it exits; interrupts are its to
	// handle, and teardown must still run afterwards.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	res, err := r.Open(cmd.Context(), reconcile.OpenRequest{
		Branch:       branch,
		Ephemeral:    openEphemeral,
		DeleteBranch: openEphemeral && openDeleteBranch,
	})
	if err != nil {
		return err
	}

	a.logger.Info("open finished",
		"branch", branch,
		"branch_action", res.Branch.String(),
		"worktree_action", res.Worktree.String(),
		"exit_code", res.ExitCode,
		"cleanup_failures", len(res.Cleanup),
	)
	if res.ExitCode != 0 {
		return &ExitCodeError{Code: res.ExitCode}
	}
	return nil
}

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
