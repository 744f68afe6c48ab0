package reconcile

import (
	"context"
	"os"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/mux"
)

// BranchAction records what EnsureBranch did.
type BranchAction int

const (
	BranchExisting BranchAction = iota
	BranchFetched
	BranchCreated
)

func (a BranchAction) String() string {
	switch a {
	case BranchFetched:
		return "fetched"
	case BranchCreated:
		return "created"
	default:
		return "existing"
	}
}

// WorktreeAction records what EnsureWorktree did.
type WorktreeAction int

const (
	WorktreeReused WorktreeAction = iota
	WorktreeAdded
	WorktreeRepaired
)

func (a WorktreeAction) String() string {
	switch a {
	case WorktreeAdded:
		return "added"
	case WorktreeRepaired:
		return "repaired"
	default:
		return "reused"
	}
}

// EnsureBranch makes branch exist locally. A local branch is left alone; a
// branch only on the remote is fetched into a same-named local branch;
// otherwise a new branch is created at HEAD.
func (r *Reconciler) EnsureBranch(ctx context.Context, branch string) (BranchAction, error) {
	logger := r.logger.WithBranch(branch)

	loc, err := r.ObserveBranch(ctx, branch)
	if err != nil {
		return BranchExisting, errors.Wrapf(err, "failed to observe branch %s", branch)
	}

	switch loc {
	case BranchLocal:
		return BranchExisting, nil
	case BranchRemote:
		if err := r.repo.FetchBranch(ctx, branch); err != nil {
			return BranchExisting, err
		}
		logger.Info("fetched branch from remote")
		return BranchFetched, nil
	default:
		if err := r.repo.CreateBranch(ctx, branch); err != nil {
			return BranchExisting, err
		}
		logger.Info("created branch from HEAD")
		return BranchCreated, nil
	}
}

// EnsureWorktree makes the derived worktree for branch both registered and
// present on disk, and returns its path. A healthy worktree is reused
// without any mutating call. A stale one, where git and the filesystem
// disagree, is pruned, cleared and added again.
func (r *Reconciler) EnsureWorktree(ctx context.Context, branch string) (string, WorktreeAction, error) {
	logger := r.logger.WithBranch(branch)

	state, err := r.ObserveWorktree(ctx, branch)
	if err != nil {
		return "", WorktreeReused, errors.Wrap(err, "failed to observe worktree")
	}

	action := WorktreeAdded
	switch {
	case state.Healthy():
		if state.Entry.Branch != branch {
			logger.Warn("worktree has a different checkout", "path", state.Path, "checkout", state.Entry.Branch)
		}
		return state.Path, WorktreeReused, nil
	case state.Stale():
		logger.Warn("stale worktree", "path", state.Path, "registered", state.Registered, "on_disk", state.OnDisk)
		if err := r.clearStale(ctx, state.Path); err != nil {
			return "", WorktreeReused, err
		}
		action = WorktreeRepaired
	}

	if err := r.repo.Add(ctx, state.Path, branch); err != nil {
		return "", WorktreeReused, err
	}

	confirmed, err := r.observePath(ctx, state.Path)
	if err != nil {
		return "", WorktreeReused, errors.Wrap(err, "failed to confirm worktree")
	}
	if !confirmed.Healthy() {
		return "", WorktreeReused, errors.NewNotFoundError("worktree", state.Path)
	}

	logger.Info("worktree ready", "path", state.Path, "action", action.String())
	return state.Path, action, nil
}

// clearStale prunes the registry, removes a registration that survived the
// prune, then deletes any directory left at path.
func (r *Reconciler) clearStale(ctx context.Context, path string) error {
	if err := r.repo.Prune(ctx); err != nil {
		return err
	}

	state, err := r.observePath(ctx, path)
	if err != nil {
		return err
	}
	if state.Registered {
		if err := r.repo.Remove(ctx, path); err != nil {
			return err
		}
	}

	if isDir(path) {
		r.logger.Warn("deleting unregistered worktree directory", "path", path)
		r.warn("deleting unregistered worktree directory " + path)
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "failed to delete leftover directory %s", path)
		}
	}
	return nil
}

// LaunchSession hands the terminal to the session for branch, running in
// dir. It blocks until the multiplexer exits and returns its exit code.
func (r *Reconciler) LaunchSession(ctx context.Context, branch, dir string) (int, error) {
	session := r.SessionName(branch)
	logger := r.logger.WithBranch(branch)

	logger.Info("launching session", "session", session, "backend", r.mux.Name(), "dir", dir)
	code, attached, err := mux.Launch(ctx, r.mux, session, dir)
	if err != nil {
		return code, err
	}
	logger.Info("session exited", "session", session, "attached", attached, "exit_code", code)
	return code, nil
}
