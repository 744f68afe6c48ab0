// Package command runs the external tools graft drives (git, zellij, tmux).
//
// It is the only place that touches os/exec. Every invocation is logged at
// DEBUG, and failures are translated into the two tool error types:
//
//   - the binary could not be started: errors.ExecutionError
//   - the binary ran and exited non-zero: errors.ToolFailureError, carrying
//     the captured output
//
// Interactive invocations hand the terminal to the child and return its exit
// code; a non-zero code there is a result, not an error.
package command

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/graft/internal/errors"
	"github.com/Iron-Ham/graft/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes name with args in dir and returns its stdout. A non-zero
	// exit returns a *errors.ToolFailureError with stdout and stderr attached.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)

	// Interactive executes name with the caller's stdin, stdout and stderr and
	// blocks until it exits. It returns the child's exit code.
	Interactive(ctx context.Context, dir, name string, args ...string) (int, error)

	// LookPath reports the resolved path of a binary on PATH.
	LookPath(name string) (string, error)
}

// Exec executes commands using os/exec.
type Exec struct {
	logger *logging.Logger

	// Stdin, Stdout and Stderr are the streams handed to interactive children.
	// They default to the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Executor = (*Exec)(nil)

// New creates an Exec that logs through logger. A nil logger discards logs.
func New(logger *logging.Logger) *Exec {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Exec{
		logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes a command and returns its stdout.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("exec",
		"tool", name,
		"args", args,
		"dir", dir,
		"duration_ms", time.Since(start).Milliseconds(),
		"exit_code", cmd.ProcessState.ExitCode(),
	)

	if err == nil {
		return stdout.Bytes(), nil
	}
	return stdout.Bytes(), translate(err, dir, name, args, stdout.String()+stderr.String())
}

// Interactive executes a command attached to the terminal.
func (e *Exec) Interactive(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	e.logger.Debug("exec interactive", "tool", name, "args", args, "dir", dir)
	start := time.Now()
	err := cmd.Run()

	code := cmd.ProcessState.ExitCode()
	e.logger.Debug("interactive exited",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"exit_code", code,
	)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return -1, translate(err, dir, name, args, "")
	}
	return code, nil
}

// LookPath reports the resolved path of a binary on PATH.
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// translate maps an os/exec error to the graft tool error taxonomy.
func translate(err error, dir, name string, args []string, output string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Failure(dir, name, args, exitErr.ExitCode(), output)
	}
	return errors.NewExecutionError(name, args, err).
		WithMissing(errors.Is(err, exec.ErrNotFound))
}

// Failure builds the error returned for a non-zero exit. Fake executors use
// it so tests see exactly what production code sees.
func Failure(dir, name string, args []string, exitCode int, output string) error {
	return errors.NewToolFailureError(name, args, exitCode, output).WithDir(dir)
}

// Output trims a command's stdout to a string.
func Output(out []byte) string {
	return strings.TrimSpace(string(out))
}

// Lines splits a command's stdout into non-blank, trimmed lines.
func Lines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
