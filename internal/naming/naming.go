// Package naming derives worktree paths and session names from branch names.
//
// Both are pure functions of the branch name, so every invocation can
// re-derive them without any stored mapping. Session names are flat: "/" in
// a branch becomes "-". Two branches that differ only in that choice, such as
// "feature/x" and "feature-x", therefore share a session name. This is
// accepted behavior.
package naming

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultWorktreeDir is the directory, relative to the repository root,
	// that holds every worktree graft creates.
	DefaultWorktreeDir = ".worktrees"
	// DefaultSessionPrefix marks sessions created by graft.
	DefaultSessionPrefix = "wt-"
	// FlatSeparator replaces "/" in session names.
	FlatSeparator = "-"
)

// Policy maps branch names to worktree paths and session names.
type Policy struct {
	// WorktreeDir is relative to the repository root unless absolute.
	WorktreeDir string
	// SessionPrefix is prepended to every session name.
	SessionPrefix string
}

// Default returns the policy used when no configuration overrides it.
func Default() Policy {
	return Policy{WorktreeDir: DefaultWorktreeDir, SessionPrefix: DefaultSessionPrefix}
}

// BaseDir returns the directory holding all worktrees for the repository at root.
func (p Policy) BaseDir(root string) string {
	dir := p.WorktreeDir
	if dir == "" {
		dir = DefaultWorktreeDir
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// WorktreePath returns root/<worktree dir>/branch. Slashes in the branch
// become nested directories.
func (p Policy) WorktreePath(root, branch string) string {
	return filepath.Join(p.BaseDir(root), filepath.FromSlash(branch))
}

// SessionName returns the prefix followed by the flat form of branch.
func (p Policy) SessionName(branch string) string {
	return p.SessionPrefix + FlatName(branch)
}

// TrimSessionPrefix strips the prefix from a session name. It reports false
// for sessions graft did not create.
func (p Policy) TrimSessionPrefix(session string) (string, bool) {
	if p.SessionPrefix == "" {
		return "", false
	}
	return strings.CutPrefix(session, p.SessionPrefix)
}

// RelativeBranchPath returns the part of path below the worktree base
// directory in slash form, or false when path lies outside it.
func (p Policy) RelativeBranchPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(p.BaseDir(root), path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// FlatName replaces every "/" in branch with FlatSeparator.
func FlatName(branch string) string {
	return strings.ReplaceAll(branch, "/", FlatSeparator)
}

// WorktreePath applies the default policy.
func WorktreePath(root, branch string) string {
	return Default().WorktreePath(root, branch)
}

// SessionName applies the default policy.
func SessionName(branch string) string {
	return Default().SessionName(branch)
}
