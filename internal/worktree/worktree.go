package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/graft/internal/errors"
)

// ListWorktrees parses `git worktree list --porcelain`.
func (g *Git) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := g.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list worktrees")
	}
	return ParseWorktreeList(string(out)), nil
}

// Prune drops registrations whose directories no longer exist.
func (g *Git) Prune(ctx context.Context) error {
	if _, err := g.run(ctx, "worktree", "prune"); err != nil {
		return errors.Wrap(err, "failed to prune worktrees")
	}
	return nil
}

// Add creates a worktree at path with branch checked out. Parent directories
// of nested branch paths are created first.
func (g *Git) Add(ctx context.Context, path, branch string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create worktree parent directory: %w", err)
	}
	if _, err := g.run(ctx, "worktree", "add", path, branch); err != nil {
		return errors.Wrapf(err, "failed to add worktree for %s", branch)
	}
	return nil
}

// Remove forcibly removes the worktree registered at path, discarding
// uncommitted changes in it.
func (g *Git) Remove(ctx context.Context, path string) error {
	if _, err := g.run(ctx, "worktree", "remove", "--force", path); err != nil {
		return errors.Wrapf(err, "failed to remove worktree %s", path)
	}
	return nil
}
