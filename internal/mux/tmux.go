package mux

import (
	"context"
	"strings"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
)

// Tmux drives tmux, optionally on a dedicated socket.
type Tmux struct {
	exec   command.Executor
	socket string
}

var _ Multiplexer = (*Tmux)(nil)

// NewTmux creates a tmux backend. A non-empty socket is passed as -L.
func NewTmux(exec command.Executor, socket string) *Tmux {
	return &Tmux{exec: exec, socket: socket}
}

// Name returns "tmux".
func (t *Tmux) Name() string { return BackendTmux }

// args prepends the socket selection to a tmux command.
func (t *Tmux) args(args ...string) []string {
	if t.socket == "" {
		return args
	}
	return append([]string{"-L", t.socket}, args...)
}

// isNoServer reports whether tmux output means no server is listening.
func isNoServer(output string) bool {
	msg := strings.ToLower(output)
	return strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "error connecting to") ||
		strings.Contains(msg, "failed to connect to server") ||
		strings.Contains(msg, "server exited unexpectedly")
}

// isSessionGone reports whether tmux output means the session no longer
// exists, which happens when it exits between listing and killing.
func isSessionGone(output string) bool {
	msg := strings.ToLower(output)
	return strings.Contains(msg, "can't find session") ||
		strings.Contains(msg, "session not found") ||
		isNoServer(msg)
}

// ListSessions runs `tmux list-sessions -F #{session_name}`.
func (t *Tmux) ListSessions(ctx context.Context) ([]string, error) {
	out, err := t.exec.Run(ctx, "", "tmux", t.args("list-sessions", "-F", "#{session_name}")...)
	if err != nil {
		var failure *errors.ToolFailureError
		if errors.As(err, &failure) && isNoServer(failure.Output) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list tmux sessions")
	}
	return parseSessions(string(out)), nil
}

// ServerRunning reports whether `tmux list-sessions` succeeds.
func (t *Tmux) ServerRunning(ctx context.Context) (bool, error) {
	_, err := t.exec.Run(ctx, "", "tmux", t.args("list-sessions", "-F", "#{session_name}")...)
	if err == nil {
		return true, nil
	}
	if errors.IsToolFailure(err) {
		return false, nil
	}
	return false, err
}

// Attach runs `tmux new-session -A -s <session> -c <dir>`, which attaches
// when the session exists and creates it otherwise.
func (t *Tmux) Attach(ctx context.Context, session, dir string) (int, error) {
	return t.exec.Interactive(ctx, dir, "tmux", t.args("new-session", "-A", "-s", session, "-c", dir)...)
}

// Start runs `tmux new-session -s <session> -c <dir>`, starting the server.
func (t *Tmux) Start(ctx context.Context, session, dir string) (int, error) {
	return t.exec.Interactive(ctx, dir, "tmux", t.args("new-session", "-s", session, "-c", dir)...)
}

// DeleteSession runs `tmux kill-session -t =<session>`. The "=" prefix
// makes tmux match the name exactly instead of by prefix.
func (t *Tmux) DeleteSession(ctx context.Context, session string) error {
	present, err := hasSession(ctx, t, session)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if _, err := t.exec.Run(ctx, "", "tmux", t.args("kill-session", "-t", "="+session)...); err != nil {
		var failure *errors.ToolFailureError
		if errors.As(err, &failure) && isSessionGone(failure.Output) {
			return nil
		}
		return errors.Wrapf(err, "failed to kill tmux session %s", session)
	}
	return nil
}
