// Package mux drives the terminal multiplexer that hosts a worktree's
// session. zellij is the default backend; tmux is also supported.
//
// Session liveness is known only by asking the multiplexer. A listing that
// fails because no server is running is reported as "no sessions"; every
// other failure is returned to the caller.
package mux

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
)

// Backend names accepted by New.
const (
	BackendZellij = "zellij"
	BackendTmux   = "tmux"
)

// DefaultLayout is the zellij layout used when starting a new server.
const DefaultLayout = "worktree"

// Multiplexer is the interface the reconciler uses to manage sessions.
type Multiplexer interface {
	// Name returns the backend's binary name.
	Name() string

	// ListSessions returns the names of all sessions. When no server is
	// running the result is empty, not an error.
	ListSessions(ctx context.Context) ([]string, error)

	// ServerRunning reports whether a listing call succeeds.
	ServerRunning(ctx context.Context) (bool, error)

	// Attach attaches to the session, creating it if absent, with dir as the
	// working directory. It blocks until the client exits and returns the
	// client's exit code.
	Attach(ctx context.Context, session, dir string) (int, error)

	// Start starts a new server hosting the session in dir. It blocks until
	// the client exits and returns the client's exit code.
	Start(ctx context.Context, session, dir string) (int, error)

	// DeleteSession deletes the session. Deleting an absent session succeeds.
	DeleteSession(ctx context.Context, session string) error
}

// Options configures a backend.
type Options struct {
	// Layout is the zellij layout used by Start.
	Layout string
	// Socket selects a tmux server via -L. Empty uses tmux's default server.
	Socket string
}

// New returns the backend named by backend.
func New(backend string, exec command.Executor, opts Options) (Multiplexer, error) {
	switch strings.ToLower(backend) {
	case "", BackendZellij:
		return NewZellij(exec, opts.Layout), nil
	case BackendTmux:
		return NewTmux(exec, opts.Socket), nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("supported backends are %s and %s", BackendZellij, BackendTmux)).
			WithField("session.backend").
			WithValue(backend).
			WithCause(errors.ErrUnknownBackend)
	}
}

// ValidBackends returns the accepted backend names.
func ValidBackends() []string {
	return []string{BackendZellij, BackendTmux}
}

// parseSessions takes the first whitespace-delimited token of every
// non-blank line.
func parseSessions(output string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func hasSession(ctx context.Context, m Multiplexer, session string) (bool, error) {
	sessions, err := m.ListSessions(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range sessions {
		if s == session {
			return true, nil
		}
	}
	return false, nil
}
