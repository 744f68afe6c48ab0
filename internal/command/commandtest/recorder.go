// Package commandtest provides a scripted command.Executor for tests.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Iron-Ham/graft/internal/command"
	"github.com/Iron-Ham/graft/internal/errors"
)

// Call records a single command invocation.
type Call struct {
	Dir         string
	Name        string
	Args        []string
	Interactive bool
}

// String renders the call as a command line, e.g. "git worktree prune".
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type rule struct {
	prefix   string
	output   string
	exitCode int
	startErr error
}

// Recorder is a command.Executor that records every call and answers from
// rules registered with On, Fail and Missing. A call is matched against its
// command line; the most recently registered rule whose prefix matches wins,
// so a test can change the scripted world mid-way by registering again.
// Unmatched calls succeed with empty output.
type Recorder struct {
	mu      sync.Mutex
	rules   []rule
	calls   []Call
	missing map[string]bool
}

var _ command.Executor = (*Recorder)(nil)

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{missing: make(map[string]bool)}
}

// On scripts a successful response for calls starting with prefix.
func (r *Recorder) On(prefix, output string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, output: output})
	return r
}

// Fail scripts a non-zero exit for calls starting with prefix.
func (r *Recorder) Fail(prefix string, exitCode int, output string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, output: output, exitCode: exitCode})
	return r
}

// Missing makes every call to the named binary fail to start.
func (r *Recorder) Missing(name string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[name] = true
	return r
}

func (r *Recorder) match(c Call) (rule, bool) {
	line := c.String()
	for i := len(r.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.rules[i].prefix) {
			return r.rules[i], true
		}
	}
	return rule{}, false
}

func (r *Recorder) record(c Call) (rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, c)
	if r.missing[c.Name] {
		cause := fmt.Errorf("exec: %q: executable file not found in $PATH", c.Name)
		return rule{}, errors.NewExecutionError(c.Name, c.Args, cause).WithMissing(true)
	}
	resp, _ := r.match(c)
	return resp, nil
}

// Run implements command.Executor.
func (r *Recorder) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	resp, err := r.record(Call{Dir: dir, Name: name, Args: args})
	if err != nil {
		return nil, err
	}
	if resp.exitCode != 0 {
		return []byte(resp.output), command.Failure(dir, name, args, resp.exitCode, resp.output)
	}
	return []byte(resp.output), nil
}

// Interactive implements command.Executor. The scripted exit code is
// returned as the child's exit code.
func (r *Recorder) Interactive(_ context.Context, dir, name string, args ...string) (int, error) {
	resp, err := r.record(Call{Dir: dir, Name: name, Args: args, Interactive: true})
	if err != nil {
		return -1, err
	}
	return resp.exitCode, nil
}

// LookPath implements command.Executor.
func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns a copy of every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns every recorded call rendered with Call.String.
func (r *Recorder) Lines() []string {
	var lines []string
	for _, c := range r.Calls() {
		lines = append(lines, c.String())
	}
	return lines
}

// Reset forgets recorded calls but keeps the rules.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
