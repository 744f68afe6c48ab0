package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/graft/internal/errors"
)

// RemoveRequest describes a Remove.
type RemoveRequest struct {
	Branch       string
	DeleteBranch bool
}

// RemoveResult reports what Remove did.
type RemoveResult struct {
	Path    string
	Session string
	// Warnings holds the best-effort session deletion failure, if any.
	Warnings []error
}

// Remove deletes the branch's session (best effort), then its worktree,
// then optionally the branch. The session goes first so nothing is running
// inside the worktree, and the worktree before the branch because git
// refuses to delete a checked-out branch.
func (r *Reconciler) Remove(ctx context.Context, req RemoveRequest) (*RemoveResult, error) {
	logger := r.logger.WithBranch(req.Branch).WithOperation("remove")
	res := &RemoveResult{Path: r.WorktreePath(req.Branch), Session: r.SessionName(req.Branch)}

	res.Warnings = r.bestEffort(ctx, logger, step{
		name: "delete session " + res.Session,
		run: func(ctx context.Context) error {
			return r.mux.DeleteSession(ctx, res.Session)
		},
	})

	if err := r.removeWorktree(ctx, req.Branch); err != nil {
		return res, fmt.Errorf("failed to remove worktree: %w", err)
	}
	logger.Info("worktree removed", "path", res.Path)

	if req.DeleteBranch {
		if err := r.repo.DeleteBranch(ctx, req.Branch); err != nil {
			return res, fmt.Errorf("failed to delete branch: %w", err)
		}
		logger.Info("branch deleted")
	}
	return res, nil
}

// removeWorktree removes the derived worktree for branch. A healthy
// worktree is removed through git; a stale one is repaired away; an absent
// one is a NotFoundError.
func (r *Reconciler) removeWorktree(ctx context.Context, branch string) error {
	state, err := r.ObserveWorktree(ctx, branch)
	if err != nil {
		return err
	}
	switch {
	case state.Healthy():
		err = r.repo.Remove(ctx, state.Path)
	case state.Stale():
		err = r.clearStale(ctx, state.Path)
	default:
		return errors.NewNotFoundError("worktree", state.Path)
	}
	if err != nil {
		return err
	}
	r.removeEmptyParents(state.Path)
	return nil
}

// removeEmptyParents deletes the empty directories left above a removed
// worktree, stopping at the first non-empty one. The worktree directory
// itself goes too when it is empty and lives inside the repository.
func (r *Reconciler) removeEmptyParents(path string) {
	root := r.repo.Root()
	base := r.policy.BaseDir(root)
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, ok := r.policy.RelativeBranchPath(root, dir); !ok {
			if dir != base || !isInside(root, base) {
				return
			}
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		r.logger.Debug("removed empty directory", "path", dir)
		if dir == base {
			return
		}
	}
}

// isInside reports whether path lies strictly below dir.
func isInside(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
