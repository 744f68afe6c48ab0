// Package worktree is graft's adapter for git: it observes branches and the
// worktree registry and performs the few mutations the reconciler needs.
// Every call goes through a command.Executor so tests can script git.
package worktree

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/logging"
)

// DefaultRemote is the remote consulted for branches that are not local.
const DefaultRemote = "origin"

// Git runs git commands against a single repository.
type Git struct {
	exec   command.Executor
	root   string
	remote string
	logger *logging.Logger
}

// Option configures a Git.
type Option func(*Git)

// WithRemote sets the remote consulted for non-local branches.
func WithRemote(remote string) Option {
	return func(g *Git) {
		if remote != "" {
			g.remote = remote
		}
	}
}

// WithLogger sets the logger used for fallbacks and warnings.
func WithLogger(logger *logging.Logger) Option {
	return func(g *Git) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Git for the repository whose main worktree is root.
func New(exec command.Executor, root string, opts ...Option) *Git {
	g := &Git{
		exec:   exec,
		root:   root,
		remote: DefaultRemote,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FindRepoRoot returns the top-level directory of the main worktree for the
// repository containing startDir. Called from inside a linked worktree it
// still returns the main worktree, so derived paths never nest.
func FindRepoRoot(ctx context.Context, exec command.Executor, startDir string) (string, error) {
	out, err := exec.Run(ctx, startDir, "git", "rev-parse", "--path-format=absolute", "--git-common-dir")
	if err != nil {
		if errors.IsToolFailure(err) {
			return "", errors.Wrapf(errors.ErrNotGitRepository, "%s", startDir)
		}
		return "", err
	}

	commonDir := filepath.Clean(command.Output(out))
	if filepath.Base(commonDir) == ".git" {
		return filepath.Dir(commonDir), nil
	}

	// Non-standard layouts (separate git dir, bare clones): fall back to the
	// top level of the current worktree.
	out, err = exec.Run(ctx, startDir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.IsToolFailure(err) {
			return "", errors.Wrapf(errors.ErrNotGitRepository, "%s", startDir)
		}
		return "", err
	}
	return filepath.Clean(command.Output(out)), nil
}

// Root returns the main worktree's top-level directory.
func (g *Git) Root() string {
	return g.root
}

// Remote returns the remote consulted for non-local branches.
func (g *Git) Remote() string {
	return g.remote
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	return g.exec.Run(ctx, g.root, "git", args...)
}

// -----------------------------------------------------------------------------
// Branch observation
// -----------------------------------------------------------------------------

// BranchExists reports whether refs/heads/<branch> exists.
func (g *Git) BranchExists(ctx context.Context, branch string) (bool, error) {
	return g.refExists(ctx, localRefPrefix+branch)
}

func (g *Git) refExists(ctx context.Context, ref string) (bool, error) {
	_, err := g.run(ctx, "show-ref", "--verify", "--quiet", ref)
	if err == nil {
		return true, nil
	}
	var failure *errors.ToolFailureError
	if errors.As(err, &failure) && failure.ExitCode == 1 {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to check ref %s", ref)
}

// RemoteBranchExists asks the remote whether it has the branch. A
// repository without the remote has no remote branches. When the remote
// cannot be reached, the local remote-tracking ref is consulted instead.
func (g *Git) RemoteBranchExists(ctx context.Context, branch string) (bool, error) {
	remotes, err := g.run(ctx, "remote")
	if err != nil {
		return false, errors.Wrap(err, "failed to list remotes")
	}
	if !contains(command.Lines(remotes), g.remote) {
		return false, nil
	}

	_, err = g.run(ctx, "ls-remote", "--exit-code", "--heads", g.remote, localRefPrefix+branch)
	if err == nil {
		return true, nil
	}

	var failure *errors.ToolFailureError
	if !errors.As(err, &failure) {
		return false, err
	}
	// --exit-code: 2 means the remote answered and has no such ref.
	if failure.ExitCode == 2 {
		return false, nil
	}

	g.logger.Warn("remote unreachable, using remote-tracking ref",
		"remote", g.remote, "branch", branch, "error", err.Error())
	return g.refExists(ctx, "refs/remotes/"+g.remote+"/"+branch)
}

// -----------------------------------------------------------------------------
// Branch mutation
// -----------------------------------------------------------------------------

// ValidateBranchName rejects names git would refuse as a branch.
func (g *Git) ValidateBranchName(ctx context.Context, branch string) error {
	if strings.TrimSpace(branch) == "" {
		return errors.NewValidationError("branch name cannot be empty").WithField("branch")
	}
	_, err := g.run(ctx, "check-ref-format", "--branch", branch)
	if err == nil {
		return nil
	}
	if errors.IsToolFailure(err) {
		return errors.NewValidationError("not a valid branch name").
			WithField("branch").
			WithValue(branch).
			WithCause(errors.ErrInvalidBranchName)
	}
	return err
}

// FetchBranch fetches the branch from the remote into a same-named local
// branch, then points its upstream at the remote. The local tip equals the
// remote tip; no commits are created.
func (g *Git) FetchBranch(ctx context.Context, branch string) error {
	refspec := localRefPrefix + branch + ":" + localRefPrefix + branch
	if _, err := g.run(ctx, "fetch", "--quiet", g.remote, refspec); err != nil {
		return errors.Wrapf(err, "failed to fetch %s from %s", branch, g.remote)
	}

	upstream := g.remote + "/" + branch
	if _, err := g.run(ctx, "branch", "--set-upstream-to="+upstream, branch); err != nil {
		g.logger.Debug("could not set upstream", "branch", branch, "upstream", upstream, "error", err.Error())
	}
	return nil
}

// CreateBranch creates a local branch at the current HEAD.
func (g *Git) CreateBranch(ctx context.Context, branch string) error {
	if _, err := g.run(ctx, "branch", branch); err != nil {
		return errors.Wrapf(err, "failed to create branch %s", branch)
	}
	return nil
}

// DeleteBranch force-deletes a local branch. A branch that does not exist
// is reported as a NotFoundError.
func (g *Git) DeleteBranch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "branch", "-D", branch)
	if err == nil {
		return nil
	}
	if errors.IsToolFailure(err) {
		if exists, existsErr := g.BranchExists(ctx, branch); existsErr == nil && !exists {
			return errors.NewNotFoundError("branch", branch).WithCause(err)
		}
	}
	return errors.Wrapf(err, "failed to delete branch %s", branch)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
