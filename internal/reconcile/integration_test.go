package reconcile

import (
	"context"
	"os"
	"testing"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/testutil"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// -----------------------------------------------------------------------------
// Real git, fake multiplexer
// -----------------------------------------------------------------------------

func newGitReconciler(t *testing.T, repo string) (*Reconciler, *fakeMux) {
	t.Helper()
	m := newFakeMux(&events{})
	m.running = true
	return New(worktree.New(command.New(nil), repo), m), m
}

func TestIntegration_OpenCreatesBranchFromHead(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo := testutil.SetupTestRepo(t)
	r, _ := newGitReconciler(t, repo)
	head := testutil.RevParse(t, repo, "HEAD")

	res, err := r.Open(context.Background(), OpenRequest{Branch: "feature/new"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Branch != BranchCreated {
		t.Errorf("Branch action = %v, want created", res.Branch)
	}
	if !testutil.BranchExists(t, repo, "feature/new") {
		t.Fatal("branch does not exist after Open")
	}
	if got := testutil.RevParse(t, repo, "feature/new"); got != head {
		t.Errorf("branch tip = %s, want HEAD %s", got, head)
	}
	if !isDir(res.Path) {
		t.Error("worktree directory missing after Open")
	}
}

func TestIntegration_OpenFetchesRemoteOnlyBranch(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo, _ := testutil.SetupTestRepoWithRemote(t)
	tip := testutil.CreateRemoteOnlyBranch(t, repo, "feature/remote")
	r, _ := newGitReconciler(t, repo)

	res, err := r.Open(context.Background(), OpenRequest{Branch: "feature/remote"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Branch != BranchFetched {
		t.Errorf("Branch action = %v, want fetched", res.Branch)
	}
	if got := testutil.RevParse(t, repo, "refs/heads/feature/remote"); got != tip {
		t.Errorf("local tip = %s, want remote tip %s", got, tip)
	}
}

func TestIntegration_EphemeralRoundTrip(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo := testutil.SetupTestRepo(t)
	r, m := newGitReconciler(t, repo)

	res, err := r.Open(context.Background(), OpenRequest{Branch: "scratch", Ephemeral: true, DeleteBranch: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(res.Cleanup) != 0 {
		t.Fatalf("cleanup failures: %v", res.Cleanup)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Error("worktree directory left behind")
	}
	if len(testutil.ListWorktrees(t, repo)) != 1 {
		t.Error("worktree still registered")
	}
	if testutil.BranchExists(t, repo, "scratch") {
		t.Error("branch still exists")
	}
	if len(m.sessions) != 0 {
		t.Errorf("sessions left behind: %v", m.sessions)
	}
}

func TestIntegration_StaleRepair(t *testing.T) {
	testutil.SkipIfNoGit(t)
	ctx := context.Background()
	repo := testutil.SetupTestRepo(t)
	r, _ := newGitReconciler(t, repo)
	testutil.CreateBranch(t, repo, "topic")

	path, _, err := r.EnsureWorktree(ctx, "topic")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(path); err != nil {
		t.Fatal(err)
	}

	_, action, err := r.EnsureWorktree(ctx, "topic")
	if err != nil {
		t.Fatalf("EnsureWorktree() error = %v", err)
	}
	if action != WorktreeRepaired {
		t.Errorf("action = %v, want repaired", action)
	}
	state, err := r.ObserveWorktree(ctx, "topic")
	if err != nil {
		t.Fatal(err)
	}
	if !state.Healthy() {
		t.Errorf("worktree not healthy after repair: %+v", state)
	}
}
