package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
)

var resetCmd = &cobra.Command{
	Use:   "reset <effort-id> <session-id>",
	Short: "Force a session to a given status",
	Long: `Force a session to a given status. This is an administrative override
for recovering from stuck or mis-reported sessions; it records the old
and new status plus the reason in the effort history. A session cannot
be reset to completed, and the iteration count is never changed.`,
	Args: cobra.ExactArgs(2),
	RunE: runReset,
}

var (
	resetTo     string
	resetReason string
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVar(&resetTo, "to", "", "Target status: pending, in_progress, or needs_revision (required)")
	resetCmd.Flags().StringVar(&resetReason, "reason", "", "Why the override is needed (required)")
	_ = resetCmd.MarkFlagRequired("to")
	_ = resetCmd.MarkFlagRequired("reason")
}

func runReset(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}
	to := effort.SessionStatus(resetTo)
	if !to.Valid() {
		return errors.NewValidationError(fmt.Sprintf("invalid --to value %q", resetTo))
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	updated, err := e.machine.Reset(cmd.Context(), args[0], sessionID, to, resetReason)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s reset to %s\n", sessionID, updated.Session(sessionID).Status)
	return nil
}
