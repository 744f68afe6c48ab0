package reconcile

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/styles"
)

// Check is one line of a doctor report.
type Check struct {
	Status string // styles.StatusOK, StatusMiss or StatusWarn
	Name   string
	Detail string
}

// Report is the result of a doctor run.
type Report struct {
	Checks []Check
}

// Add appends a check.
func (r *Report) Add(status, name, detail string) {
	r.Checks = append(r.Checks, Check{Status: status, Name: name, Detail: detail})
}

// Healthy reports whether no check is missing.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == styles.StatusMiss {
			return false
		}
	}
	return true
}

// Write renders the report one check per line.
func (r *Report) Write(w io.Writer, theme *styles.Theme) {
	if theme == nil {
		theme = styles.Plain()
	}
	for _, c := range r.Checks {
		msg := c.Name
		if c.Detail != "" {
			msg += " " + theme.Muted.Render("("+c.Detail+")")
		}
		fmt.Fprintln(w, theme.Status(c.Status, msg))
	}
}

// CheckTools reports whether each binary is on PATH.
func CheckTools(report *Report, exec command.Executor, names ...string) {
	for _, name := range names {
		if path, err := exec.LookPath(name); err != nil {
			report.Add(styles.StatusMiss, name+" on PATH", "not found")
		} else {
			report.Add(styles.StatusOK, name+" on PATH", path)
		}
	}
}

// Diagnose adds repository and multiplexer checks to report: whether the
// multiplexer server answers, registered worktrees whose directory is gone,
// checkouts under the worktree directory that git does not know about, and
// prefixed sessions with no worktree.
func (r *Reconciler) Diagnose(ctx context.Context, report *Report) {
	report.Add(styles.StatusOK, "git repository", r.repo.Root())

	running, err := r.mux.ServerRunning(ctx)
	switch {
	case errors.Is(err, errors.ErrToolMissing):
		report.Add(styles.StatusMiss, r.mux.Name()+" server", r.mux.Name()+" is not installed")
	case err != nil:
		report.Add(styles.StatusMiss, r.mux.Name()+" server", err.Error())
	case running:
		report.Add(styles.StatusOK, r.mux.Name()+" server", "running")
	default:
		report.Add(styles.StatusWarn, r.mux.Name()+" server", "not running; open will start one")
	}

	list, err := r.repo.ListWorktrees(ctx)
	if err != nil {
		report.Add(styles.StatusMiss, "worktree registry", err.Error())
		return
	}

	stale := 0
	for i, wt := range list {
		if i == 0 || wt.Bare {
			continue
		}
		if !isDir(wt.Path) {
			stale++
			report.Add(styles.StatusWarn, "stale worktree", wt.Path+"; run graft ls --prune-worktrees")
		}
	}

	root := r.repo.Root()
	registered := map[string]bool{}
	for _, wt := range list {
		if rel, ok := r.policy.RelativeBranchPath(root, wt.Path); ok {
			registered[rel] = true
		}
	}
	unregistered := 0
	onDisk := r.worktreeFragmentsOnDisk()
	for _, fragment := range slices.Sorted(maps.Keys(onDisk)) {
		if !registered[fragment] {
			unregistered++
			report.Add(styles.StatusWarn, "unregistered worktree directory", r.policy.WorktreePath(root, fragment))
		}
	}
	if stale == 0 && unregistered == 0 {
		report.Add(styles.StatusOK, "worktrees", fmt.Sprintf("%d registered", max(len(list)-1, 0)))
	}

	sessions, err := r.mux.ListSessions(ctx)
	if err != nil {
		report.Add(styles.StatusMiss, r.mux.Name()+" sessions", err.Error())
		return
	}
	keep := r.worktreeFragments(list)
	orphans := 0
	for _, s := range sessions {
		fragment, ok := r.policy.TrimSessionPrefix(s)
		if !ok || fragment == "" || keep[fragment] || isCheckout(r.policy.WorktreePath(root, fragment)) {
			continue
		}
		orphans++
		report.Add(styles.StatusWarn, "orphan session", s+"; run graft ls --prune-sessions")
	}
	if orphans == 0 {
		report.Add(styles.StatusOK, "sessions", fmt.Sprintf("%d listed", len(sessions)))
	}
}

// worktreeFragmentsOnDisk returns the slash-form path, relative to the
// worktree directory, of every checkout found on disk.
func (r *Reconciler) worktreeFragmentsOnDisk() map[string]bool {
	found := map[string]bool{}
	root := r.repo.Root()
	walkCheckouts(r.policy.BaseDir(root), func(path string) {
		if rel, ok := r.policy.RelativeBranchPath(root, path); ok {
			found[rel] = true
		}
	})
	return found
}
