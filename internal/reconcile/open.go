package reconcile

import (
	"context"
	"fmt"
)

// OpenRequest describes an Open.
type OpenRequest struct {
	Branch string
	// Ephemeral tears the session and worktree down once the multiplexer exits.
	Ephemeral bool
	// DeleteBranch also deletes the local branch during ephemeral teardown.
	DeleteBranch bool
}

// OpenResult reports what Open did.
type OpenResult struct {
	Branch   BranchAction
	Worktree WorktreeAction
	Path     string
	Session  string
	// ExitCode is the multiplexer's own exit code.
	ExitCode int
	// Cleanup holds the best-effort failures from ephemeral teardown.
	Cleanup []error
}

// Open ensures the branch and its worktree, then hands the terminal to the
// branch's session until the multiplexer exits. An ephemeral open then
// deletes the session, removes the worktree and, if asked, deletes the
// branch, continuing past any failure.
//
// The returned exit code is the multiplexer's. Teardown failures are
// reported in OpenResult.Cleanup and never change it.
func (r *Reconciler) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	logger := r.logger.WithBranch(req.Branch).WithOperation("open")
	res := &OpenResult{Session: r.SessionName(req.Branch), ExitCode: -1}

	if err := r.repo.ValidateBranchName(ctx, req.Branch); err != nil {
		return res, err
	}

	var err error
	if res.Branch, err = r.EnsureBranch(ctx, req.Branch); err != nil {
		return res, fmt.Errorf("failed to ensure branch: %w", err)
	}
	if res.Path, res.Worktree, err = r.EnsureWorktree(ctx, req.Branch); err != nil {
		return res, fmt.Errorf("failed to ensure worktree: %w", err)
	}

	code, launchErr := r.LaunchSession(ctx, req.Branch, res.Path)
	res.ExitCode = code

	if req.Ephemeral {
		// Teardown runs even after an interrupt cancelled ctx.
		res.Cleanup = r.teardown(context.WithoutCancel(ctx), req.Branch, req.DeleteBranch)
		logger.Info("ephemeral teardown finished", "failures", len(res.Cleanup))
	}

	if launchErr != nil {
		return res, fmt.Errorf("failed to launch session: %w", launchErr)
	}
	return res, nil
}

// teardown is the ephemeral cleanup chain.
func (r *Reconciler) teardown(ctx context.Context, branch string, deleteBranch bool) []error {
	logger := r.logger.WithBranch(branch).WithOperation("teardown")
	session := r.SessionName(branch)

	steps := []step{
		{name: "delete session " + session, run: func(ctx context.Context) error {
			return r.mux.DeleteSession(ctx, session)
		}},
		{name: "remove worktree", run: func(ctx context.Context) error {
			return r.removeWorktree(ctx, branch)
		}},
	}
	if deleteBranch {
		steps = append(steps, step{name: "delete branch " + branch, run: func(ctx context.Context) error {
			return r.repo.DeleteBranch(ctx, branch)
		}})
	}
	return r.bestEffort(ctx, logger, steps...)
}
