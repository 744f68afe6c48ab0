package reconcile

import (
	"context"

	"github.com/Iron-Ham/graft/internal/worktree"
)

// PruneResult reports a session sweep.
type PruneResult struct {
	// Deleted lists the sessions that were deleted.
	Deleted []string
	// Failures holds best-effort deletion failures.
	Failures []error
}

// PruneSessions deletes every session carrying the session prefix whose
// worktree checkout no longer exists. Sessions without the prefix are
// never touched, and a session is kept whenever a matching checkout is
// present, registered or not.
func (r *Reconciler) PruneSessions(ctx context.Context) (*PruneResult, error) {
	list, err := r.repo.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := r.ObserveSessions(ctx)
	if err != nil {
		return nil, err
	}
	return r.pruneSessions(ctx, list, sessions), nil
}

func (r *Reconciler) pruneSessions(ctx context.Context, list []worktree.Worktree, sessions []string) *PruneResult {
	logger := r.logger.WithOperation("prune-sessions")
	keep := r.worktreeFragments(list)
	root := r.repo.Root()
	res := &PruneResult{}

	var steps []step
	for _, session := range sessions {
		fragment, ok := r.policy.TrimSessionPrefix(session)
		if !ok || fragment == "" {
			continue
		}
		if keep[fragment] || isCheckout(r.policy.WorktreePath(root, fragment)) {
			continue
		}

		steps = append(steps, step{name: "delete session " + session, run: func(ctx context.Context) error {
			if err := r.mux.DeleteSession(ctx, session); err != nil {
				return err
			}
			logger.Info("pruned orphan session", "session", session)
			res.Deleted = append(res.Deleted, session)
			return nil
		}})
	}

	res.Failures = r.bestEffort(ctx, logger, steps...)
	return res
}
