package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/graft/internal/config"
	"github.com/Iron-Ham/graft/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View graft's log",
	Long: `View and filter graft's log file.

Every command appends JSON lines to graft.log in the log directory
(logging.dir, default $XDG_STATE_HOME/graft).`,
	Example: `  # Show the last 50 entries
  graft logs

  # Show everything that touched one branch
  graft logs --branch feature/login -n 0

  # Warnings and errors from the last hour
  graft logs --level warn --since 1h

  # Search messages
  graft logs --grep "cleanup"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail   int
	logsLevel  string
	logsSince  string
	logsBranch string
	logsGrep   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsBranch, "branch", "", "Show only entries for this branch")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Show only entries whose message contains this text")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	filter := logging.LogFilter{
		Branch:          logsBranch,
		MessageContains: logsGrep,
	}
	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.Since = time.Now().Add(-d)
	}

	entries, err := logging.ReadLogs(filepath.Join(cfg.Logging.LogDir(), logging.FileName))
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)

	// Apply tail limit
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries found.")
		return nil
	}
	return logging.WriteText(cmd.OutOrStdout(), entries)
}
