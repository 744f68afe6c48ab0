package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/graft/internal/logging"
	"github.com/Iron-Ham/graft/internal/mux"
	"github.com/Iron-Ham/graft/internal/naming"
	"github.com/Iron-Ham/graft/internal/worktree"
)

// EnvPrefix is prepended to environment overrides, e.g. GRAFT_SESSION_BACKEND.
const EnvPrefix = "GRAFT"

// Config represents the complete graft configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Git     GitConfig     `mapstructure:"git" yaml:"git"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// PathsConfig controls where worktrees are created
type PathsConfig struct {
	// WorktreeDir is the directory where git worktrees are created.
	// Relative paths are resolved against the repository root (default:
	// ".worktrees"). Absolute paths and ~ are allowed.
	WorktreeDir string `mapstructure:"worktree_dir" yaml:"worktree_dir"`
}

// GitConfig controls how branches are found
type GitConfig struct {
	// Remote is consulted for branches that do not exist locally (default: "origin")
	Remote string `mapstructure:"remote" yaml:"remote"`
}

// SessionConfig controls the multiplexer session
type SessionConfig struct {
	// Backend is the multiplexer: "zellij" or "tmux" (default: "zellij")
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Prefix marks sessions graft owns; only these are ever pruned (default: "wt-")
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	// Layout is the zellij layout used when starting a new server (default: "worktree")
	Layout string `mapstructure:"layout" yaml:"layout"`
	// TmuxSocket selects a dedicated tmux server via -L. Empty uses the default server.
	TmuxSocket string `mapstructure:"tmux_socket" yaml:"tmux_socket"`
}

// LoggingConfig controls file logging
type LoggingConfig struct {
	// Enabled controls whether logs are written (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory. Empty uses $XDG_STATE_HOME/graft.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated backups (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			WorktreeDir: naming.DefaultWorktreeDir,
		},
		Git: GitConfig{
			Remote: worktree.DefaultRemote,
		},
		Session: SessionConfig{
			Backend: mux.BackendZellij,
			Prefix:  naming.DefaultSessionPrefix,
			Layout:  mux.DefaultLayout,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  logging.DefaultRotationConfig().MaxSizeMB,
			MaxBackups: logging.DefaultRotationConfig().MaxBackups,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("paths.worktree_dir", defaults.Paths.WorktreeDir)

	viper.SetDefault("git.remote", defaults.Git.Remote)

	viper.SetDefault("session.backend", defaults.Session.Backend)
	viper.SetDefault("session.prefix", defaults.Session.Prefix)
	viper.SetDefault("session.layout", defaults.Session.Layout)
	viper.SetDefault("session.tmux_socket", defaults.Session.TmuxSocket)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded configuration is invalid
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Naming returns the naming policy for this configuration.
func (c *Config) Naming() naming.Policy {
	return naming.Policy{
		WorktreeDir:   expandHome(c.Paths.WorktreeDir),
		SessionPrefix: c.Session.Prefix,
	}
}

// MuxOptions returns the backend options for this configuration.
func (c *Config) MuxOptions() mux.Options {
	return mux.Options{Layout: c.Session.Layout, Socket: c.Session.TmuxSocket}
}

// LogDir returns the resolved log directory.
func (c *LoggingConfig) LogDir() string {
	if c.Dir == "" {
		return logging.DefaultDir()
	}
	return expandHome(c.Dir)
}

// Rotation returns the rotation settings for the log file.
func (c *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "graft")
	}
	// Fall back to ~/.config/graft
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graft"
	}
	return filepath.Join(home, ".config", "graft")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultFileContents is written by `graft config init`.
const DefaultFileContents = `# graft configuration
# Every key can be overridden with an environment variable, e.g.
# GRAFT_SESSION_BACKEND=tmux

paths:
  # Where worktrees are created, relative to the repository root.
  # Absolute paths and ~ are allowed.
  worktree_dir: .worktrees

git:
  # Remote consulted for branches that do not exist locally.
  remote: origin

session:
  # Multiplexer backend: zellij or tmux.
  backend: zellij
  # Prefix for sessions graft creates. Only prefixed sessions are pruned.
  prefix: wt-
  # zellij layout used when a new server is started.
  layout: worktree
  # Dedicated tmux server socket (tmux -L). Empty uses the default server.
  tmux_socket: ""

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Empty uses $XDG_STATE_HOME/graft
  dir: ""
  max_size_mb: 10
  max_backups: 3
  compress: false
`
