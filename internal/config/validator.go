package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/graft/internal/mux"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.backend")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateGit()...)
	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError
	path := c.Paths.WorktreeDir

	if strings.TrimSpace(path) == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.worktree_dir",
			Value:   path,
			Message: "must not be empty",
		})
		return errors
	}

	// Check for null bytes which are invalid in paths
	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "paths.worktree_dir",
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	// The repository root itself cannot hold worktrees
	if path == "." || path == "./" {
		errors = append(errors, ValidationError{
			Field:   "paths.worktree_dir",
			Value:   path,
			Message: "must be a subdirectory, not the repository root",
		})
	}

	return errors
}

// validateGit validates the GitConfig
func (c *Config) validateGit() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Git.Remote) == "" || strings.ContainsAny(c.Git.Remote, " \t/") {
		errors = append(errors, ValidationError{
			Field:   "git.remote",
			Value:   c.Git.Remote,
			Message: "must be a non-empty remote name without spaces or slashes",
		})
	}

	return errors
}

// validateSession validates the SessionConfig
func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(mux.ValidBackends(), strings.ToLower(c.Session.Backend)) {
		errors = append(errors, ValidationError{
			Field:   "session.backend",
			Value:   c.Session.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(mux.ValidBackends(), ", ")),
		})
	}

	// An empty prefix would make every session look like one graft owns
	if c.Session.Prefix == "" {
		errors = append(errors, ValidationError{
			Field:   "session.prefix",
			Value:   c.Session.Prefix,
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(c.Session.Prefix, " \t/:") {
		errors = append(errors, ValidationError{
			Field:   "session.prefix",
			Value:   c.Session.Prefix,
			Message: "must not contain whitespace, '/' or ':'",
		})
	}

	if strings.ContainsAny(c.Session.TmuxSocket, " \t/") {
		errors = append(errors, ValidationError{
			Field:   "session.tmux_socket",
			Value:   c.Session.TmuxSocket,
			Message: "must be a socket name, not a path",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
