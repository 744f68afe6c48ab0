package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/naming"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// BranchLocation is where a branch was observed.
type BranchLocation int

const (
	BranchAbsent BranchLocation = iota
	BranchLocal
	BranchRemote
)

func (l BranchLocation) String() string {
	switch l {
	case BranchLocal:
		return "local"
	case BranchRemote:
		return "remote"
	default:
		return "absent"
	}
}

// ObserveBranch reports where branch exists, preferring local over remote.
func (r *Reconciler) ObserveBranch(ctx context.Context, branch string) (BranchLocation, error) {
	local, err := r.repo.BranchExists(ctx, branch)
	if err != nil {
		return BranchAbsent, err
	}
	if local {
		return BranchLocal, nil
	}
	remote, err := r.repo.RemoteBranchExists(ctx, branch)
	if err != nil {
		return BranchAbsent, err
	}
	if remote {
		return BranchRemote, nil
	}
	return BranchAbsent, nil
}

// WorktreeState is what git's registry and the filesystem each say about a
// derived worktree path. The two are checked independently.
type WorktreeState struct {
	Path       string
	Registered bool
	OnDisk     bool
	Entry      worktree.Worktree // valid when Registered
}

// Healthy reports whether the worktree is both registered and on disk.
func (s WorktreeState) Healthy() bool { return s.Registered && s.OnDisk }

// Stale reports whether exactly one of the two facts holds.
func (s WorktreeState) Stale() bool { return s.Registered != s.OnDisk }

// Absent reports whether neither fact holds.
func (s WorktreeState) Absent() bool { return !s.Registered && !s.OnDisk }

// ObserveWorktree checks the derived path for branch against git and disk.
func (r *Reconciler) ObserveWorktree(ctx context.Context, branch string) (WorktreeState, error) {
	return r.observePath(ctx, r.WorktreePath(branch))
}

func (r *Reconciler) observePath(ctx context.Context, path string) (WorktreeState, error) {
	list, err := r.repo.ListWorktrees(ctx)
	if err != nil {
		return WorktreeState{}, err
	}
	state := WorktreeState{Path: path, OnDisk: isDir(path)}
	state.Entry, state.Registered = worktree.Find(list, path)
	return state, nil
}

// ObserveSessions lists the multiplexer's sessions.
func (r *Reconciler) ObserveSessions(ctx context.Context) ([]string, error) {
	sessions, err := r.mux.ListSessions(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s sessions", r.mux.Name())
	}
	return sessions, nil
}

// worktreeFragments returns the flat name of every worktree directory that
// exists on disk: registered worktrees by branch and by path, plus any
// checkout left under the worktree directory without a registration.
func (r *Reconciler) worktreeFragments(list []worktree.Worktree) map[string]bool {
	root := r.repo.Root()
	keep := make(map[string]bool)

	for _, wt := range list {
		if !isDir(wt.Path) {
			continue
		}
		if wt.Branch != "" {
			keep[naming.FlatName(wt.Branch)] = true
		}
		if rel, ok := r.policy.RelativeBranchPath(root, wt.Path); ok {
			keep[naming.FlatName(rel)] = true
		}
	}

	walkCheckouts(r.policy.BaseDir(root), func(path string) {
		if rel, ok := r.policy.RelativeBranchPath(root, path); ok {
			keep[naming.FlatName(rel)] = true
		}
	})

	return keep
}

// walkCheckouts calls fn for every directory below base that holds a .git
// entry, without descending into it.
func walkCheckouts(base string, fn func(path string)) {
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == base {
			return nil
		}
		if isCheckout(path) {
			fn(path)
			return filepath.SkipDir
		}
		return nil
	})
}

// isCheckout reports whether path is a directory holding a .git entry.
// Intermediate directories of nested branch paths are not checkouts.
func isCheckout(path string) bool {
	if !isDir(path) {
		return false
	}
	_, err := os.Lstat(filepath.Join(path, ".git"))
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
