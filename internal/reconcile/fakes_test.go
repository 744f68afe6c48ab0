package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/mux"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// events is the ordered log of mutating calls shared by both fakes.
type events struct {
	log []string
}

func (e *events) add(format string, args ...string) {
	e.log = append(e.log, strings.TrimSpace(format+" "+strings.Join(args, " ")))
}

func (e *events) reset() { e.log = nil }

// -----------------------------------------------------------------------------
// fakeRepo
// -----------------------------------------------------------------------------

// fakeRepo is an in-memory git whose worktrees are real directories under a
// temporary root, so registry and disk can drift apart the way they do in
// practice.
type fakeRepo struct {
	root       string
	head       string
	local      map[string]string // branch -> tip
	remote     map[string]string
	registered map[string]string // path -> branch
	locked     map[string]bool   // registrations prune leaves alone
	fail       map[string]error  // op -> error
	ev         *events
}

var _ worktree.Repository = (*fakeRepo)(nil)

func newFakeRepo(t *testing.T, ev *events) *fakeRepo {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &fakeRepo{
		root:       root,
		head:       "c0ffee",
		local:      map[string]string{"main": "c0ffee"},
		remote:     map[string]string{},
		registered: map[string]string{},
		locked:     map[string]bool{},
		fail:       map[string]error{},
		ev:         ev,
	}
}

func (f *fakeRepo) Root() string { return f.root }

func (f *fakeRepo) BranchExists(_ context.Context, branch string) (bool, error) {
	_, ok := f.local[branch]
	return ok, nil
}

func (f *fakeRepo) RemoteBranchExists(_ context.Context, branch string) (bool, error) {
	_, ok := f.remote[branch]
	return ok, nil
}

func (f *fakeRepo) ValidateBranchName(_ context.Context, branch string) error {
	if strings.TrimSpace(branch) == "" || strings.Contains(branch, "..") {
		return errors.NewValidationError("not a valid branch name").WithCause(errors.ErrInvalidBranchName)
	}
	return nil
}

func (f *fakeRepo) FetchBranch(_ context.Context, branch string) error {
	f.ev.add("git fetch", branch)
	if err := f.fail["fetch"]; err != nil {
		return err
	}
	f.local[branch] = f.remote[branch]
	return nil
}

func (f *fakeRepo) CreateBranch(_ context.Context, branch string) error {
	f.ev.add("git branch", branch)
	f.local[branch] = f.head
	return nil
}

func (f *fakeRepo) DeleteBranch(_ context.Context, branch string) error {
	f.ev.add("git branch -D", branch)
	if err := f.fail["delete-branch"]; err != nil {
		return err
	}
	if _, ok := f.local[branch]; !ok {
		return errors.NewNotFoundError("branch", branch)
	}
	for _, b := range f.registered {
		if b == branch {
			return command.Failure(f.root, "git", []string{"branch", "-D", branch}, 1,
				"error: cannot delete branch '"+branch+"' used by worktree")
		}
	}
	delete(f.local, branch)
	return nil
}

func (f *fakeRepo) ListWorktrees(context.Context) ([]worktree.Worktree, error) {
	list := []worktree.Worktree{{Path: f.root, Branch: "main", Head: f.head}}
	paths := make([]string, 0, len(f.registered))
	for p := range f.registered {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		list = append(list, worktree.Worktree{Path: p, Branch: f.registered[p], Locked: f.locked[p]})
	}
	return list, nil
}

func (f *fakeRepo) Prune(context.Context) error {
	f.ev.add("git worktree prune")
	for p := range f.registered {
		if !f.locked[p] && !isDir(p) {
			delete(f.registered, p)
		}
	}
	return nil
}

func (f *fakeRepo) Add(_ context.Context, path, branch string) error {
	f.ev.add("git worktree add", f.rel(path), branch)
	if err := f.fail["add"]; err != nil {
		return err
	}
	if _, ok := f.local[branch]; !ok {
		return command.Failure(f.root, "git", []string{"worktree", "add", path, branch}, 128,
			"fatal: invalid reference: "+branch)
	}
	if entries, _ := os.ReadDir(path); len(entries) > 0 {
		return command.Failure(f.root, "git", []string{"worktree", "add", path, branch}, 128,
			"fatal: '"+path+"' already exists")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(path, ".git"), []byte("gitdir: "+f.root+"\n"), 0644); err != nil {
		return err
	}
	f.registered[path] = branch
	return nil
}

func (f *fakeRepo) Remove(ctx context.Context, path string) error {
	f.ev.add("git worktree remove --force", f.rel(path))
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.fail["remove"]; err != nil {
		return err
	}
	if _, ok := f.registered[path]; !ok {
		return command.Failure(f.root, "git", []string{"worktree", "remove", "--force", path}, 128,
			"fatal: '"+path+"' is not a working tree")
	}
	delete(f.registered, path)
	delete(f.locked, path)
	return os.RemoveAll(path)
}

// rel keeps event lines short and independent of the temp directory.
func (f *fakeRepo) rel(path string) string {
	if rel, err := filepath.Rel(f.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// -----------------------------------------------------------------------------
// fakeMux
// -----------------------------------------------------------------------------

type fakeMux struct {
	running   bool
	serverErr error
	sessions  []string
	exitCode  int
	launchErr error
	deleteErr map[string]error
	lastDir   string
	onEnter   func() // runs while the session is "attached"
	ev        *events
}

var _ mux.Multiplexer = (*fakeMux)(nil)

func newFakeMux(ev *events) *fakeMux {
	return &fakeMux{deleteErr: map[string]error{}, ev: ev}
}

func (m *fakeMux) Name() string { return "fakemux" }

func (m *fakeMux) ListSessions(context.Context) ([]string, error) {
	if !m.running {
		return nil, nil
	}
	return slices.Clone(m.sessions), nil
}

func (m *fakeMux) ServerRunning(context.Context) (bool, error) {
	if m.serverErr != nil {
		return false, m.serverErr
	}
	return m.running, nil
}

func (m *fakeMux) Attach(_ context.Context, session, dir string) (int, error) {
	m.ev.add("mux attach", session)
	return m.enter(session, dir)
}

func (m *fakeMux) Start(_ context.Context, session, dir string) (int, error) {
	m.ev.add("mux start", session)
	m.running = true
	return m.enter(session, dir)
}

func (m *fakeMux) enter(session, dir string) (int, error) {
	if m.launchErr != nil {
		return -1, m.launchErr
	}
	m.lastDir = dir
	if m.onEnter != nil {
		m.onEnter()
	}
	if !slices.Contains(m.sessions, session) {
		m.sessions = append(m.sessions, session)
	}
	return m.exitCode, nil
}

func (m *fakeMux) DeleteSession(ctx context.Context, session string) error {
	m.ev.add("mux delete", session)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.deleteErr[session]; err != nil {
		return err
	}
	m.sessions = slices.DeleteFunc(m.sessions, func(s string) bool { return s == session })
	return nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

type fixture struct {
	repo *fakeRepo
	mux  *fakeMux
	ev   *events
	r    *Reconciler
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ev := &events{}
	f := &fixture{repo: newFakeRepo(t, ev), mux: newFakeMux(ev), ev: ev}
	f.r = New(f.repo, f.mux, opts...)
	return f
}

// checkout creates a registered worktree for branch without going through
// the reconciler.
func (f *fixture) checkout(t *testing.T, branch string) string {
	t.Helper()
	if _, ok := f.repo.local[branch]; !ok {
		f.repo.local[branch] = f.repo.head
	}
	path := f.r.WorktreePath(branch)
	if err := f.repo.Add(context.Background(), path, branch); err != nil {
		t.Fatal(err)
	}
	f.ev.reset()
	return path
}

// writeCheckout creates a directory that looks like a checkout on disk but
// is not registered with the fake repository.
func writeCheckout(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, ".git"), []byte("gitdir: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}
