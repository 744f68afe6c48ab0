// Package errors provides centralized error definitions and error handling utilities
// for graft. It defines the error taxonomy used when reconciling branches,
// worktrees and multiplexer sessions, error constructors with context
// wrapping, and error classification helpers.
//
// # Error Types
//
// Tool errors describe what happened when an external tool was invoked:
//   - ExecutionError: the tool could not be started at all (missing binary,
//     permission denied). Always fatal.
//   - ToolFailureError: the tool ran but exited non-zero. Carries the exit
//     code and the captured output.
//
// Semantic errors represent common error conditions:
//   - NotFoundError: a branch or worktree is absent where it is required
//   - ValidationError: invalid input or configuration
//   - BestEffortFailure: a cleanup or prune step failed; reported as a warning
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewToolFailureError("git", args, 128, output).WithDir(repo)
//	err := errors.NewNotFoundError("worktree", path)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrToolMissing) { ... }
//
//	var failure *errors.ToolFailureError
//	if errors.As(err, &failure) { ... }
//
//	if errors.IsBestEffort(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and audience:
//   - UserFacing: graft errors whose message is written for users, as
//     opposed to errors passed through from the standard library
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that are reported but never abort an operation.
	SeverityWarning
	// SeverityError is for errors that abort the current operation.
	SeverityError
	// SeverityCritical is for errors that abort the process.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrWorktreeNotFound indicates that a worktree could not be found.
	ErrWorktreeNotFound = New("worktree not found")
	// ErrBranchNotFound indicates that a branch could not be found.
	ErrBranchNotFound = New("branch not found")
	// ErrInvalidBranchName indicates that git rejected a branch name.
	ErrInvalidBranchName = New("invalid branch name")
)

// Multiplexer-related sentinel errors
var (
	// ErrUnknownBackend indicates that the configured multiplexer is not supported.
	ErrUnknownBackend = New("unknown multiplexer backend")
)

// General sentinel errors
var (
	// ErrToolMissing indicates that an external tool is not on PATH.
	ErrToolMissing = New("tool not found in PATH")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrNotATerminal indicates that an interactive operation was requested
	// without a terminal attached.
	ErrNotATerminal = New("not a terminal")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GraftError is the base interface for all graft errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type GraftError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// commandLine renders a tool invocation the way a user would type it.
func commandLine(tool string, args []string) string {
	if len(args) == 0 {
		return tool
	}
	return tool + " " + strings.Join(args, " ")
}

// -----------------------------------------------------------------------------
// Tool Errors
// -----------------------------------------------------------------------------

// ExecutionError represents an external tool that could not be invoked at all.
//
// Example:
//
//	err := errors.NewExecutionError("zellij", []string{"list-sessions"}, cause)
//	fmt.Println(err) // "execution error [tool=zellij]: failed to run zellij list-sessions: <cause>"
type ExecutionError struct {
	baseError
	Tool    string
	Args    []string
	Missing bool // The binary was not found on PATH
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(tool string, args []string, cause error) *ExecutionError {
	return &ExecutionError{
		baseError: baseError{
			message:    fmt.Sprintf("failed to run %s", commandLine(tool, args)),
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Tool: tool,
		Args: args,
	}
}

// WithMissing marks the error as caused by a binary absent from PATH.
func (e *ExecutionError) WithMissing(missing bool) *ExecutionError {
	e.Missing = missing
	return e
}

// Error returns the formatted error message.
func (e *ExecutionError) Error() string {
	prefix := fmt.Sprintf("execution error [tool=%s]", e.Tool)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ExecutionError) Is(target error) bool {
	if _, ok := target.(*ExecutionError); ok {
		return true
	}
	if e.Missing && target == ErrToolMissing {
		return true
	}
	return e.baseError.Is(target)
}

// ToolFailureError represents a tool that ran and exited with a non-success
// status for an operation that was expected to succeed.
//
// Example:
//
//	err := errors.NewToolFailureError("git", []string{"worktree", "add", p, b}, 128, out)
//	err = err.WithDir("/repo")
//	fmt.Println(err) // "tool failure [exit=128, dir=/repo]: git worktree add p b\noutput: fatal: ..."
type ToolFailureError struct {
	baseError
	Tool     string
	Args     []string
	Dir      string
	ExitCode int
	Output   string // Captured stdout and stderr
}

// NewToolFailureError creates a new ToolFailureError.
func NewToolFailureError(tool string, args []string, exitCode int, output string) *ToolFailureError {
	return &ToolFailureError{
		baseError: baseError{
			message:    commandLine(tool, args),
			severity:   SeverityError,
			userFacing: true,
		},
		Tool:     tool,
		Args:     args,
		ExitCode: exitCode,
		Output:   output,
	}
}

// WithDir adds the working directory of the invocation to the error context.
func (e *ToolFailureError) WithDir(dir string) *ToolFailureError {
	e.Dir = dir
	return e
}

// WithCause adds a cause to the error.
func (e *ToolFailureError) WithCause(cause error) *ToolFailureError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ToolFailureError) Error() string {
	parts := []string{fmt.Sprintf("exit=%d", e.ExitCode)}
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}

	msg := fmt.Sprintf("tool failure [%s]: %s", strings.Join(parts, ", "), e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s\noutput: %s", msg, out)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ToolFailureError) Is(target error) bool {
	if _, ok := target.(*ToolFailureError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a branch or worktree that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("worktree", "/repo/.worktrees/feature")
//	fmt.Println(err) // "worktree '/repo/.worktrees/feature' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityError,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target. A NotFoundError also matches
// the sentinel for its resource type.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	switch e.ResourceType {
	case "worktree":
		if target == ErrWorktreeNotFound {
			return true
		}
	case "branch":
		if target == ErrBranchNotFound {
			return true
		}
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("branch name cannot be empty")
//	err = err.WithField("branch").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// BestEffortFailure represents a cleanup or prune step that failed. It is
// reported as a warning and never aborts the steps that follow it.
//
// Example:
//
//	err := errors.NewBestEffortFailure("delete session", cause)
//	fmt.Println(err) // "delete session failed: <cause>"
type BestEffortFailure struct {
	baseError
	Step string
}

// NewBestEffortFailure creates a new BestEffortFailure.
func NewBestEffortFailure(step string, cause error) *BestEffortFailure {
	return &BestEffortFailure{
		baseError: baseError{
			message:    fmt.Sprintf("%s failed", step),
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Step: step,
	}
}

// Is checks if this error matches the target.
func (e *BestEffortFailure) Is(target error) bool {
	if _, ok := target.(*BestEffortFailure); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "an internal error occurred")
//	    logger.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var graftErr GraftError
	if As(err, &graftErr) {
		return graftErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GraftError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityWarning:
//	    logger.Warn("cleanup step failed", "err", err)
//	default:
//	    return err
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var graftErr GraftError
	if As(err, &graftErr) {
		return graftErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// IsExecution returns true if the error is, or wraps, an ExecutionError.
func IsExecution(err error) bool {
	var execErr *ExecutionError
	return err != nil && As(err, &execErr)
}

// IsToolFailure returns true if the error is, or wraps, a ToolFailureError.
func IsToolFailure(err error) bool {
	var failure *ToolFailureError
	return err != nil && As(err, &failure)
}

// IsBestEffort returns true if the error is, or wraps, a BestEffortFailure.
func IsBestEffort(err error) bool {
	var failure *BestEffortFailure
	return err != nil && As(err, &failure)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to add worktree")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to delete branch %s", branch)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
