package worktree

import (
	"path/filepath"
	"strings"
)

// Worktree is one record of `git worktree list --porcelain`.
type Worktree struct {
	Path string
	// Branch is the checked-out branch with refs/heads/ stripped. Refs
	// outside refs/heads/ are kept verbatim. Empty when detached.
	Branch   string
	Head     string
	Detached bool
	Bare     bool
	Locked   bool
	// Prunable is set when git already knows the directory is gone.
	Prunable bool
}

// IsDetached reports whether the worktree has no branch checked out.
func (w Worktree) IsDetached() bool {
	return w.Branch == ""
}

const localRefPrefix = "refs/heads/"

// ParseWorktreeList parses porcelain output. A "worktree <path>" line starts
// a new record; attribute lines that follow belong to it until the next
// "worktree" line or end of input. Blank lines are ignored.
func ParseWorktreeList(output string) []Worktree {
	var (
		list    []Worktree
		current *Worktree
	)

	flush := func() {
		if current != nil {
			list = append(list, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			flush()
			current = &Worktree{Path: filepath.Clean(value)}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "HEAD":
			current.Head = value
		case "branch":
			current.Branch = strings.TrimPrefix(value, localRefPrefix)
		case "detached":
			current.Detached = true
		case "bare":
			current.Bare = true
		case "locked":
			current.Locked = true
		case "prunable":
			current.Prunable = true
		}
	}
	flush()

	return list
}

// Find returns the record registered at path.
func Find(list []Worktree, path string) (Worktree, bool) {
	for _, wt := range list {
		if SamePath(wt.Path, path) {
			return wt, true
		}
	}
	return Worktree{}, false
}

// SamePath compares two paths after cleaning and, when both exist,
// resolving symlinks.
func SamePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ra == rb
}
