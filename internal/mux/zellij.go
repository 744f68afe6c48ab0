package mux

import (
	"context"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
)

// Zellij drives zellij.
type Zellij struct {
	exec   command.Executor
	layout string
}

var _ Multiplexer = (*Zellij)(nil)

// NewZellij creates a zellij backend. An empty layout uses DefaultLayout.
func NewZellij(exec command.Executor, layout string) *Zellij {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Zellij{exec: exec, layout: layout}
}

// Name returns "zellij".
func (z *Zellij) Name() string { return BackendZellij }

// Layout returns the layout used when starting a new server.
func (z *Zellij) Layout() string { return z.layout }

// ListSessions runs `zellij list-sessions`. zellij exits non-zero when it
// has no sessions at all, so any non-zero exit means an empty list.
func (z *Zellij) ListSessions(ctx context.Context) ([]string, error) {
	out, err := z.exec.Run(ctx, "", "zellij", "list-sessions", "--short", "--no-formatting")
	if err != nil {
		if errors.IsToolFailure(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseSessions(string(out)), nil
}

// ServerRunning reports whether `zellij list-sessions` succeeds.
func (z *Zellij) ServerRunning(ctx context.Context) (bool, error) {
	_, err := z.exec.Run(ctx, "", "zellij", "list-sessions", "--short", "--no-formatting")
	if err == nil {
		return true, nil
	}
	if errors.IsToolFailure(err) {
		return false, nil
	}
	return false, err
}

// Attach runs `zellij attach -c <session>` in dir.
func (z *Zellij) Attach(ctx context.Context, session, dir string) (int, error) {
	return z.exec.Interactive(ctx, dir, "zellij", "attach", "-c", session)
}

// Start runs `zellij -n <layout> -s <session>` in dir.
func (z *Zellij) Start(ctx context.Context, session, dir string) (int, error) {
	return z.exec.Interactive(ctx, dir, "zellij", "-n", z.layout, "-s", session)
}

// DeleteSession runs `zellij delete-session --force <session>`, which also
// kills a session that is still running.
func (z *Zellij) DeleteSession(ctx context.Context, session string) error {
	present, err := hasSession(ctx, z, session)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if _, err := z.exec.Run(ctx, "", "zellij", "delete-session", "--force", session); err != nil {
		return errors.Wrapf(err, "failed to delete zellij session %s", session)
	}
	return nil
}
