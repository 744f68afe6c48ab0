package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/graft/internal/reconcile"
)

var rmCmd = &cobra.Command{
	Use:   "rm <branch>",
	Short: "Remove a branch's session and worktree",
	Long: `Remove the multiplexer session and the worktree derived from a branch.

The session is deleted first; if that fails a warning is printed and the
worktree is removed anyway. Uncommitted changes in the worktree are
discarded. The branch itself is kept unless --delete-branch is given.`,
	Example: `  graft rm feature/login
  graft rm spike/idea --delete-branch`,
	Aliases: []string{"remove"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var rmDeleteBranch bool

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVar(&rmDeleteBranch, "delete-branch", false, "Also delete the local branch")
}

func runRemove(cmd *cobra.Command, args []string) error {
	branch := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.reconciler(cmd.Context())
	if err != nil {
		return err
	}

	res, err := r.Remove(cmd.Context(), reconcile.RemoveRequest{
		Branch:       branch,
		DeleteBranch: rmDeleteBranch,
	})
	if err != nil {
		return err
	}

	theme := stdoutTheme(cmd)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Removed worktree %s\n", theme.Path.Render(res.Path))
	if rmDeleteBranch {
		fmt.Fprintf(w, "Deleted branch %s\n", theme.Branch.Render(branch))
	}
	return nil
}
