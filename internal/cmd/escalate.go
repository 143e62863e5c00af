package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/effort"
)

var escalateCmd = &cobra.Command{
	Use:   "escalate <effort-id> <session-id>...",
	Short: "Flag sessions for human attention",
	Long: `Flag one or more sessions for human attention. Escalation is an
overlay: the sessions keep their current status and stay workable, the
flag just surfaces in status output until the session is re-entered.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEscalate,
}

var escalateReason string

func init() {
	rootCmd.AddCommand(escalateCmd)

	escalateCmd.Flags().StringVar(&escalateReason, "reason", "", "Why these sessions need attention (required)")
	_ = escalateCmd.MarkFlagRequired("reason")
}

func runEscalate(cmd *cobra.Command, args []string) error {
	ids := make([]effort.SessionID, 0, len(args)-1)
	for _, raw := range args[1:] {
		id, err := parseSessionID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.Escalate(cmd.Context(), args[0], ids, escalateReason); err != nil {
		return err
	}

	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = id.String()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Escalated %s: %s\n", strings.Join(labels, ", "), escalateReason)
	return nil
}

var askCmd = &cobra.Command{
	Use:   "ask <effort-id> <session-id>",
	Short: "Record a worker's question for the coordinator",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

var (
	askQuestion string
	askOptions  []string
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askQuestion, "question", "", "The question to surface (required)")
	askCmd.Flags().StringArrayVar(&askOptions, "option", nil, "A proposed answer (repeatable)")
	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.Ask(cmd.Context(), args[0], sessionID, askQuestion, askOptions); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Question recorded for session %s\n", sessionID)
	return nil
}
