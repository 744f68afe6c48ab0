package reconcile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/styles"
	"github.com/google/go-cmp/cmp"
)

func TestRemoveOrder(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-x"}
	path := f.checkout(t, "feature/x")

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "feature/x", DeleteBranch: true}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	want := []string{
		"mux delete wt-feature-x",
		"git worktree remove --force .worktrees/feature/x",
		"git branch -D feature/x",
	}
	if diff := cmp.Diff(want, f.ev.log); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("worktree directory still present")
	}
	if _, ok := f.repo.local["feature/x"]; ok {
		t.Error("branch still present")
	}
}

func TestRemoveKeepsBranchByDefault(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, "topic")

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := f.repo.local["topic"]; !ok {
		t.Error("branch deleted without DeleteBranch")
	}
}

func TestRemoveSessionFailureIsBestEffort(t *testing.T) {
	var warnings bytes.Buffer
	f := newFixture(t, WithWarnings(&warnings, styles.Plain()))
	f.mux.deleteErr["wt-topic"] = errors.New("permission denied")
	f.checkout(t, "topic")

	res, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic"})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(res.Warnings) != 1 || !errors.IsBestEffort(res.Warnings[0]) {
		t.Errorf("Warnings = %v, want one best-effort failure", res.Warnings)
	}
	if !strings.HasPrefix(warnings.String(), "warn: delete session wt-topic failed") {
		t.Errorf("warning output = %q", warnings.String())
	}
	if isDir(res.Path) {
		t.Error("worktree not removed after session failure")
	}
}

func TestRemoveMissingWorktree(t *testing.T) {
	f := newFixture(t)
	f.repo.local["topic"] = "abc"

	_, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic", DeleteBranch: true})
	if !errors.Is(err, errors.ErrWorktreeNotFound) {
		t.Fatalf("expected ErrWorktreeNotFound, got %v", err)
	}
	if _, ok := f.repo.local["topic"]; !ok {
		t.Error("branch deleted although worktree removal failed")
	}
}

func TestRemoveStaleWorktree(t *testing.T) {
	f := newFixture(t)
	path := f.checkout(t, "topic")
	if err := os.RemoveAll(path); err != nil {
		t.Fatal(err)
	}

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(f.repo.registered) != 0 {
		t.Errorf("stale registration survived: %v", f.repo.registered)
	}
}

func TestRemoveBranchFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, "topic")
	f.repo.fail["delete-branch"] = errors.NewToolFailureError("git", []string{"branch", "-D", "topic"}, 1, "error: boom")

	_, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic", DeleteBranch: true})
	if !errors.IsToolFailure(err) {
		t.Fatalf("expected tool failure, got %v", err)
	}
}

func TestRemoveDeletesEmptyParents(t *testing.T) {
	f := newFixture(t)
	sibling := f.checkout(t, "feature/x")
	f.checkout(t, "feature/y")
	base := f.r.Policy().BaseDir(f.repo.root)

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "feature/y"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !isDir(filepath.Join(base, "feature")) {
		t.Fatal("parent of a remaining worktree was deleted")
	}

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "feature/x"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	for _, dir := range []string{sibling, filepath.Join(base, "feature"), base} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%s left behind", dir)
		}
	}
	if !isDir(f.repo.root) {
		t.Error("repository root removed")
	}
}

func TestRemoveKeepsNonEmptyWorktreeDir(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, "topic")
	base := f.r.Policy().BaseDir(f.repo.root)
	if err := os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.r.Remove(context.Background(), RemoveRequest{Branch: "topic"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !isDir(base) {
		t.Error("non-empty worktree directory was deleted")
	}
}
