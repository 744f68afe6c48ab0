package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/naming"
	"github.com/gobwas/glob"
	"github.com/google/go-cmp/cmp"
)

func TestPruneSessionsDeletesOnlyOrphans(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-foo", "wt-bar", "scratch"}
	f.checkout(t, "foo")

	res, err := f.r.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if diff := cmp.Diff([]string{"wt-bar"}, res.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mux delete wt-bar"}, f.ev.log); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"wt-foo", "scratch"}, f.mux.sessions); diff != "" {
		t.Errorf("remaining sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneSessionsKeepsSessionsWithDirectories(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-x", "wt-loose", "wt-nested-dir", "wt-gone"}
	f.checkout(t, "feature/x")
	gone := f.checkout(t, "gone")
	if err := os.RemoveAll(gone); err != nil {
		t.Fatal(err)
	}

	base := f.r.Policy().BaseDir(f.repo.root)
	// Unregistered checkouts, flat and nested.
	writeCheckout(t, filepath.Join(base, "loose"))
	writeCheckout(t, filepath.Join(base, "nested", "dir"))

	res, err := f.r.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if diff := cmp.Diff([]string{"wt-gone"}, res.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneSessionsIgnoresDirectoriesWithoutCheckout(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-x", "wt-feature", "wt-plain"}
	f.checkout(t, "feature/x")
	// .worktrees/feature exists only as the parent of feature/x.
	base := f.r.Policy().BaseDir(f.repo.root)
	if err := os.MkdirAll(filepath.Join(base, "plain"), 0755); err != nil {
		t.Fatal(err)
	}

	res, err := f.r.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if diff := cmp.Diff([]string{"wt-feature", "wt-plain"}, res.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"wt-feature-x"}, f.mux.sessions); diff != "" {
		t.Errorf("remaining sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneSessionsSharedFlatName(t *testing.T) {
	// "feature/x" and "feature-x" flatten to the same session name, so a
	// worktree for either keeps the shared session alive.
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-x"}
	f.checkout(t, "feature-x")

	if naming.SessionName("feature/x") != naming.SessionName("feature-x") {
		t.Fatal("expected feature/x and feature-x to share a session name")
	}
	res, err := f.r.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if len(res.Deleted) != 0 {
		t.Errorf("Deleted = %v, want none", res.Deleted)
	}
}

func TestPruneSessionsContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-a", "wt-b"}
	f.mux.deleteErr["wt-a"] = errors.New("busy")

	res, err := f.r.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if diff := cmp.Diff([]string{"wt-b"}, res.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
	if len(res.Failures) != 1 || !errors.IsBestEffort(res.Failures[0]) {
		t.Errorf("Failures = %v, want one best-effort failure", res.Failures)
	}
}

func TestPruneSessionsNoServer(t *testing.T) {
	f := newFixture(t)
	f.mux.sessions = []string{"wt-a"}

	res, err := f.r.PruneSessions(context.Background())
	if err != nil || len(res.Deleted) != 0 {
		t.Fatalf("PruneSessions() = (%+v, %v), want nothing deleted", res, err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-x", "wt-orphan", "scratch"}
	f.checkout(t, "feature/x")
	f.checkout(t, "idle")

	listing, err := f.r.List(context.Background(), ListOptions{PruneSessions: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	wantWorktrees := []WorktreeEntry{
		{Path: f.repo.root, Branch: "main", Main: true},
		{Path: f.r.WorktreePath("feature/x"), Branch: "feature/x", Session: "wt-feature-x", SessionAlive: true},
		{Path: f.r.WorktreePath("idle"), Branch: "idle", Session: "wt-idle"},
	}
	if diff := cmp.Diff(wantWorktrees, listing.Worktrees); diff != "" {
		t.Errorf("Worktrees mismatch (-want +got):\n%s", diff)
	}

	wantSessions := []SessionEntry{
		{Name: "wt-feature-x", Managed: true},
		{Name: "wt-orphan", Managed: true, Pruned: true},
		{Name: "scratch"},
	}
	if diff := cmp.Diff(wantSessions, listing.Sessions); diff != "" {
		t.Errorf("Sessions mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := listing.WriteText(&buf, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Worktrees:", "feature/x", "[wt-feature-x]", "wt-orphan  (pruned)", "scratch  (unmanaged)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestListPruneWorktreesAndDetached(t *testing.T) {
	f := newFixture(t)
	gone := f.checkout(t, "gone")
	if err := os.RemoveAll(gone); err != nil {
		t.Fatal(err)
	}

	listing, err := f.r.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(listing.Worktrees) != 2 || !listing.Worktrees[1].Missing {
		t.Fatalf("expected a missing worktree entry, got %+v", listing.Worktrees)
	}

	f.ev.reset()
	listing, err = f.r.List(context.Background(), ListOptions{PruneWorktrees: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"git worktree prune"}, f.ev.log); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if len(listing.Worktrees) != 1 {
		t.Errorf("stale worktree still listed after prune: %+v", listing.Worktrees)
	}

	detached := WorktreeEntry{Path: "/repo/.worktrees/tmp", Detached: true}
	var buf bytes.Buffer
	if err := (&Listing{Worktrees: []WorktreeEntry{detached}}).WriteText(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(detached)  /repo/.worktrees/tmp") {
		t.Errorf("detached marker missing:\n%s", buf.String())
	}
}

func TestListFilter(t *testing.T) {
	f := newFixture(t)
	f.mux.running = true
	f.mux.sessions = []string{"wt-feature-a", "wt-fix-b", "feature-notes"}
	f.checkout(t, "feature/a")
	f.checkout(t, "fix/b")

	listing, err := f.r.List(context.Background(), ListOptions{Filter: glob.MustCompile("feature*")})
	if err != nil {
		t.Fatal(err)
	}
	var branches, sessions []string
	for _, wt := range listing.Worktrees {
		branches = append(branches, wt.Branch)
	}
	for _, s := range listing.Sessions {
		sessions = append(sessions, s.Name)
	}
	if diff := cmp.Diff([]string{"feature/a"}, branches); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"wt-feature-a", "feature-notes"}, sessions); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestListingJSON(t *testing.T) {
	listing := &Listing{
		Worktrees: []WorktreeEntry{{Path: "/r", Branch: "main", Main: true}},
		Sessions:  []SessionEntry{{Name: "wt-x", Managed: true}},
	}
	var buf bytes.Buffer
	if err := listing.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Worktrees []map[string]any `json:"worktrees"`
		Sessions  []map[string]any `json:"sessions"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Worktrees[0]["branch"] != "main" || decoded.Sessions[0]["managed"] != true {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}
