package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter conductor's debug log.

Examples:
  # Show the last 50 entries
  conductor logs

  # Show everything an effort logged
  conductor logs --effort auth-refactor -n 0

  # Filter by level and session
  conductor logs --level warn --session 2.1

  # Show entries from the last hour
  conductor logs --since 1h`,
	RunE: runLogs,
}

var (
	logsEffortID  string
	logsSessionID string
	logsTail      int
	logsLevel     string
	logsSinceDur  string
	logsContains  string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsEffortID, "effort", "", "Filter by effort ID")
	logsCmd.Flags().StringVarP(&logsSessionID, "session", "s", "", "Filter by session ID")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSinceDur, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsContains, "grep", "", "Filter entries whose message contains this substring")
}

func runLogs(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	entries, err := logging.AggregateLogs(e.root)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No logs found under %s\n", e.root)
		return nil
	}

	filter := logging.LogFilter{
		EffortID:        logsEffortID,
		SessionID:       logsSessionID,
		MessageContains: logsContains,
	}
	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSinceDur != "" {
		duration, err := time.ParseDuration(logsSinceDur)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-duration)
	}

	entries = logging.FilterLogs(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries found.")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), formatLogEntry(entry))
	}
	return nil
}

// formatLogEntry renders one log entry for the terminal.
func formatLogEntry(entry logging.LogEntry) string {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(entry.Timestamp.Format("15:04:05.000"))
	sb.WriteString("] [")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString("] ")
	sb.WriteString(entry.Message)

	if entry.EffortID != "" {
		sb.WriteString(" effort_id=")
		sb.WriteString(entry.EffortID)
	}
	if entry.SessionID != "" {
		sb.WriteString(" session_id=")
		sb.WriteString(entry.SessionID)
	}
	for key, value := range entry.Attrs {
		sb.WriteString(" ")
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprintf("%v", value))
	}

	return sb.String()
}
