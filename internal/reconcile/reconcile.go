// Package reconcile brings a branch, its worktree and its multiplexer
// session into a consistent state and tears that state down again.
//
// Nothing is cached between operations. Every decision is made from a fresh
// observation of git, the filesystem and the multiplexer, and paths and
// session names are re-derived from the branch name each time.
package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/logging"
	"github.com/Iron-Ham/graft/internal/mux"
	"github.com/Iron-Ham/graft/internal/naming"
	"github.com/Iron-Ham/graft/internal/styles"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// Reconciler applies Open, Remove and List against one repository and one
// multiplexer.
type Reconciler struct {
	repo   worktree.Repository
	mux    mux.Multiplexer
	policy naming.Policy
	logger *logging.Logger

	warnOut io.Writer
	theme   *styles.Theme
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPolicy overrides the naming policy.
func WithPolicy(p naming.Policy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWarnings prints best-effort failures to w as they happen.
func WithWarnings(w io.Writer, theme *styles.Theme) Option {
	return func(r *Reconciler) {
		r.warnOut = w
		if theme != nil {
			r.theme = theme
		}
	}
}

// New creates a Reconciler.
func New(repo worktree.Repository, m mux.Multiplexer, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:   repo,
		mux:    m,
		policy: naming.Default(),
		logger: logging.NopLogger(),
		theme:  styles.Plain(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the naming policy in use.
func (r *Reconciler) Policy() naming.Policy {
	return r.policy
}

// WorktreePath derives the worktree path for branch.
func (r *Reconciler) WorktreePath(branch string) string {
	return r.policy.WorktreePath(r.repo.Root(), branch)
}

// SessionName derives the session name for branch.
func (r *Reconciler) SessionName(branch string) string {
	return r.policy.SessionName(branch)
}

// -----------------------------------------------------------------------------
// Best-effort steps
// -----------------------------------------------------------------------------

// step is one independent fallible action in a cleanup or prune chain.
type step struct {
	name string
	run  func(context.Context) error
}

// bestEffort runs every step in order. A failing step is logged, printed as
// a warning and collected; it never stops the steps after it. A step that
// could not start its tool at all is logged at error level.
func (r *Reconciler) bestEffort(ctx context.Context, logger *logging.Logger, steps ...step) []error {
	var failures []error
	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			continue
		}

		if errors.GetSeverity(err) >= errors.SeverityCritical {
			logger.Error("best-effort step failed", "step", s.name, "error", err.Error())
		} else {
			logger.Warn("best-effort step failed", "step", s.name, "error", err.Error())
		}

		failure := err
		if !errors.IsBestEffort(err) {
			failure = errors.NewBestEffortFailure(s.name, err)
		}
		r.warn(failure.Error())
		failures = append(failures, failure)
	}
	return failures
}

// warn prints msg to the warnings writer, if one is set.
func (r *Reconciler) warn(msg string) {
	if r.warnOut != nil {
		fmt.Fprintln(r.warnOut, r.theme.Warn(msg))
	}
}
