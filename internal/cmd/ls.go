package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/graft/internal/reconcile"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List worktrees and sessions",
	Long: `List the repository's worktrees and the multiplexer's sessions.

--prune-worktrees drops worktree registrations whose directory is gone.
--prune-sessions deletes sessions carrying the session prefix (wt-) whose
worktree directory no longer exists; other sessions are never touched.
--filter limits what is shown, never what is pruned.`,
	Example: `  graft ls
  graft ls --prune-worktrees --prune-sessions
  graft ls --filter 'feature/*' --json`,
	Aliases: []string{"list"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var (
	lsPruneWorktrees bool
	lsPruneSessions  bool
	lsFilter         string
	lsJSON           bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVar(&lsPruneWorktrees, "prune-worktrees", false, "Drop registrations of worktrees whose directory is gone")
	lsCmd.Flags().BoolVar(&lsPruneSessions, "prune-sessions", false, "Delete managed sessions that have no worktree")
	lsCmd.Flags().StringVar(&lsFilter, "filter", "", "Only show branches and sessions matching this glob")
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Print the listing as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	opts := reconcile.ListOptions{
		PruneWorktrees: lsPruneWorktrees,
		PruneSessions:  lsPruneSessions,
	}
	if lsFilter != "" {
		g, err := glob.Compile(lsFilter, '/')
		if err != nil {
			return fmt.Errorf("invalid filter %q: %w", lsFilter, err)
		}
		opts.Filter = g
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

	listing, err := r.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if lsJSON {
		return listing.WriteJSON(cmd.OutOrStdout())
	}
	return listing.WriteText(cmd.OutOrStdout(), stdoutTheme(cmd))
}
