package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/graft/internal/styles"
)

// ListOptions configures List.
type ListOptions struct {
	// PruneWorktrees drops registrations whose directories are gone before listing.
	PruneWorktrees bool
	// PruneSessions deletes prefixed sessions that have no worktree directory.
	PruneSessions bool
	// Filter, when set, limits the listing to matching branches and sessions.
	// It never limits what PruneSessions considers.
	Filter glob.Glob
}

// WorktreeEntry is one listed worktree.
type WorktreeEntry struct {
	Path         string `json:"path"`
	Branch       string `json:"branch,omitempty"`
	Detached     bool   `json:"detached"`
	Main         bool   `json:"main"`
	Missing      bool   `json:"missing"`
	Session      string `json:"session,omitempty"`
	SessionAlive bool   `json:"session_alive"`
}

// SessionEntry is one listed session.
type SessionEntry struct {
	Name    string `json:"name"`
	Managed bool   `json:"managed"`
	Pruned  bool   `json:"pruned"`
}

// Listing is the result of List.
type Listing struct {
	Worktrees []WorktreeEntry `json:"worktrees"`
	Sessions  []SessionEntry  `json:"sessions"`
	// Warnings holds best-effort prune failures.
	Warnings []error `json:"-"`
}

// List observes worktrees and sessions, optionally pruning each first.
func (r *Reconciler) List(ctx context.Context, opts ListOptions) (*Listing, error) {
	if opts.PruneWorktrees {
		if err := r.repo.Prune(ctx); err != nil {
			return nil, err
		}
	}

	list, err := r.repo.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := r.ObserveSessions(ctx)
	if err != nil {
		return nil, err
	}

	pruned := map[string]bool{}
	listing := &Listing{Worktrees: []WorktreeEntry{}, Sessions: []SessionEntry{}}
	if opts.PruneSessions {
		res := r.pruneSessions(ctx, list, sessions)
		for _, s := range res.Deleted {
			pruned[s] = true
		}
		listing.Warnings = res.Failures
	}

	for i, wt := range list {
		if opts.Filter != nil && !opts.Filter.Match(wt.Branch) {
			continue
		}
		entry := WorktreeEntry{
			Path:     wt.Path,
			Branch:   wt.Branch,
			Detached: wt.IsDetached() && !wt.Bare,
			Main:     i == 0,
			Missing:  !wt.Bare && !isDir(wt.Path),
		}
		if wt.Branch != "" && !entry.Main {
			entry.Session = r.SessionName(wt.Branch)
			entry.SessionAlive = slices.Contains(sessions, entry.Session) && !pruned[entry.Session]
		}
		listing.Worktrees = append(listing.Worktrees, entry)
	}

	for _, s := range sessions {
		fragment, managed := r.policy.TrimSessionPrefix(s)
		if opts.Filter != nil && !opts.Filter.Match(s) && !(managed && opts.Filter.Match(fragment)) {
			continue
		}
		listing.Sessions = append(listing.Sessions, SessionEntry{Name: s, Managed: managed, Pruned: pruned[s]})
	}

	return listing, nil
}

// WriteJSON writes the listing as indented JSON.
func (l *Listing) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// WriteText writes the human-readable listing.
func (l *Listing) WriteText(w io.Writer, theme *styles.Theme) error {
	if theme == nil {
		theme = styles.Plain()
	}

	width := 0
	for _, wt := range l.Worktrees {
		width = max(width, len(branchLabel(wt)))
	}

	if _, err := fmt.Fprintln(w, theme.Title.Render("Worktrees:")); err != nil {
		return err
	}
	if len(l.Worktrees) == 0 {
		fmt.Fprintln(w, "  "+theme.Muted.Render("(none)"))
	}
	for _, wt := range l.Worktrees {
		label := fmt.Sprintf("%-*s", width, branchLabel(wt))
		if wt.Detached {
			label = theme.Muted.Render(label)
		} else {
			label = theme.Branch.Render(label)
		}
		line := "  " + label + "  " + theme.Path.Render(wt.Path)
		switch {
		case wt.Missing:
			line += "  " + theme.Warning.Render("(missing)")
		case wt.Main:
			line += "  " + theme.Muted.Render("(main)")
		case wt.SessionAlive:
			line += "  " + theme.Session.Render("["+wt.Session+"]")
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, theme.Title.Render("Sessions:"))
	if len(l.Sessions) == 0 {
		fmt.Fprintln(w, "  "+theme.Muted.Render("(none)"))
	}
	for _, s := range l.Sessions {
		line := "  " + theme.Session.Render(s.Name)
		switch {
		case s.Pruned:
			line += "  " + theme.Warning.Render("(pruned)")
		case !s.Managed:
			line += "  " + theme.Muted.Render("(unmanaged)")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func branchLabel(wt WorktreeEntry) string {
	switch {
	case wt.Branch != "":
		return wt.Branch
	case wt.Detached:
		return "(detached)"
	default:
		return "(bare)"
	}
}
