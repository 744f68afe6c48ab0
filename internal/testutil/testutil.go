// Package testutil provides testing utilities for graft tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository with one commit on main.
// Returns the path to the repository. The repository is automatically
// cleaned up when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	// Resolve symlinks so paths compare equal to what git reports (macOS /var -> /private/var).
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	mustGit(t, dir, "init")
	mustGit(t, dir, "config", "user.email", "test@graft.dev")
	mustGit(t, dir, "config", "user.name", "Graft Test")
	mustGit(t, dir, "config", "commit.gpgsign", "false")

	// git worktree requires at least one commit
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repository\n"), 0644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	mustGit(t, dir, "add", ".")
	mustGit(t, dir, "commit", "-m", "Initial commit")

	// Some systems default to master
	mustGit(t, dir, "branch", "-M", "main")

	return dir
}

// SetupTestRepoWithRemote creates a test repository with a bare repository
// registered as origin and main pushed to it.
func SetupTestRepoWithRemote(t *testing.T) (repoDir, remoteDir string) {
	t.Helper()

	remoteDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	mustGit(t, remoteDir, "init", "--bare")

	repoDir = SetupTestRepo(t)
	mustGit(t, repoDir, "remote", "add", "origin", remoteDir)
	mustGit(t, repoDir, "push", "-u", "origin", "main")

	return repoDir, remoteDir
}

// CreateRemoteOnlyBranch creates branch with one extra commit, pushes it to
// origin and deletes the local copy, leaving only origin/<branch>.
// Returns the commit the remote branch points at.
func CreateRemoteOnlyBranch(t *testing.T, repoDir, branch string) string {
	t.Helper()

	mustGit(t, repoDir, "checkout", "-q", "-b", branch)
	CommitFile(t, repoDir, "remote.txt", "from "+branch+"\n", "Commit on "+branch)
	mustGit(t, repoDir, "push", "-q", "origin", branch)
	tip := RevParse(t, repoDir, branch)
	mustGit(t, repoDir, "checkout", "-q", "main")
	mustGit(t, repoDir, "branch", "-D", branch)
	return tip
}

// CommitFile creates or updates a file and commits it.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	mustGit(t, repoDir, "add", path)
	mustGit(t, repoDir, "commit", "-m", message)
}

// CreateBranch creates a new branch at HEAD.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	mustGit(t, repoDir, "branch", branch)
}

// RevParse returns the full commit hash ref resolves to.
func RevParse(t *testing.T, repoDir, ref string) string {
	t.Helper()
	return strings.TrimSpace(mustGit(t, repoDir, "rev-parse", ref))
}

// BranchExists reports whether a local branch exists.
func BranchExists(t *testing.T, repoDir, branch string) bool {
	t.Helper()
	return runGit(repoDir, "show-ref", "--verify", "--quiet", "refs/heads/"+branch) == nil
}

// ListWorktrees returns the paths of all registered worktrees.
func ListWorktrees(t *testing.T, repoDir string) []string {
	t.Helper()

	var worktrees []string
	for _, line := range strings.Split(mustGit(t, repoDir, "worktree", "list", "--porcelain"), "\n") {
		if path, ok := strings.CutPrefix(line, "worktree "); ok {
			worktrees = append(worktrees, path)
		}
	}
	return worktrees
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()
	SkipIfNoTool(t, "git")
}

// SkipIfNoTool skips the test if the named binary is not on PATH.
func SkipIfNoTool(t *testing.T, name string) {
	t.Helper()

	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH, skipping test", name)
	}
}

func mustGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	out, err := gitOutput(dir, args...)
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func runGit(dir string, args ...string) error {
	_, err := gitOutput(dir, args...)
	return err
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Graft Test",
		"GIT_AUTHOR_EMAIL=test@graft.dev",
		"GIT_COMMITTER_NAME=Graft Test",
		"GIT_COMMITTER_EMAIL=test@graft.dev",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
