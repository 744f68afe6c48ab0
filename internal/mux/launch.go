package mux

import (
	"context"

	"github.com/Iron-Ham/graft/internal/errors"
)

// Launch hands the terminal to the session for branch's worktree. If the
// multiplexer server is reachable the session is attached (and created if
// absent); otherwise a new server is started. Launch blocks until the
// multiplexer exits and returns its exit code.
func Launch(ctx context.Context, m Multiplexer, session, dir string) (code int, attached bool, err error) {
	running, err := m.ServerRunning(ctx)
	if err != nil {
		return -1, false, errors.Wrapf(err, "failed to query %s", m.Name())
	}

	if running {
		code, err = m.Attach(ctx, session, dir)
	} else {
		code, err = m.Start(ctx, session, dir)
	}
	if err != nil {
		return -1, running, errors.Wrapf(err, "failed to launch %s session %s", m.Name(), session)
	}
	return code, running, nil
}
