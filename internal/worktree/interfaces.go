package worktree

import "context"

// BranchObserver answers read-only questions about branches.
type BranchObserver interface {
	// BranchExists reports whether refs/heads/<branch> exists.
	BranchExists(ctx context.Context, branch string) (bool, error)

	// RemoteBranchExists reports whether the configured remote has the branch.
	RemoteBranchExists(ctx context.Context, branch string) (bool, error)
}

// BranchManager mutates local branches.
type BranchManager interface {
	// ValidateBranchName rejects names git would refuse as a branch.
	ValidateBranchName(ctx context.Context, branch string) error

	// FetchBranch fetches the branch from the remote into a same-named local branch.
	FetchBranch(ctx context.Context, branch string) error

	// CreateBranch creates a local branch at the current HEAD.
	CreateBranch(ctx context.Context, branch string) error

	// DeleteBranch force-deletes a local branch.
	DeleteBranch(ctx context.Context, branch string) error
}

// WorktreeManager observes and mutates the worktree registry.
type WorktreeManager interface {
	// ListWorktrees parses `git worktree list --porcelain`.
	ListWorktrees(ctx context.Context) ([]Worktree, error)

	// Prune drops registrations whose directories no longer exist.
	Prune(ctx context.Context) error

	// Add creates a worktree at path with branch checked out.
	Add(ctx context.Context, path, branch string) error

	// Remove forcibly removes the worktree registered at path.
	Remove(ctx context.Context, path string) error
}

// Repository is everything the reconciler needs from git.
type Repository interface {
	BranchObserver
	BranchManager
	WorktreeManager

	// Root returns the main worktree's top-level directory.
	Root() string
}

var _ Repository = (*Git)(nil)
