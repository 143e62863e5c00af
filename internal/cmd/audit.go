package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Record an audit verdict for a session's pending result",
}

var auditPassCmd = &cobra.Command{
	Use:   "pass <effort-id> <session-id>",
	Short: "Accept the pending result and complete the session",
	Args:  cobra.ExactArgs(2),
	RunE:  runAuditPass,
}

var auditFailCmd = &cobra.Command{
	Use:   "fail <effort-id> <session-id>",
	Short: "Reject the pending result and send the session back for revision",
	Long: `Reject the pending result. The session moves to needs_revision, its
iteration count goes up by one, and the issues are written to a
per-iteration document under the effort's issues directory.`,
	Args: cobra.ExactArgs(2),
	RunE: runAuditFail,
}

var auditIssues string

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditPassCmd)
	auditCmd.AddCommand(auditFailCmd)

	auditFailCmd.Flags().StringVar(&auditIssues, "issues", "", "What the auditor found wrong (required)")
	_ = auditFailCmd.MarkFlagRequired("issues")
}

func runAuditPass(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	updated, err := e.machine.AuditPass(cmd.Context(), args[0], sessionID)
	if err != nil {
		return err
	}

	rec := updated.Session(sessionID)
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s completed with result %s\n", sessionID, rec.ResultRef)
	if updated.AllSessionsCompleted() {
		fmt.Fprintf(cmd.OutOrStdout(), "All sessions are complete; run 'conductor complete %s' to close the effort\n", args[0])
	}
	return nil
}

func runAuditFail(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	updated, err := e.machine.AuditFail(cmd.Context(), args[0], sessionID, auditIssues)
	if err != nil {
		return err
	}

	rec := updated.Session(sessionID)
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s needs revision (iteration %d)\n", sessionID, rec.IterationCount)
	return nil
}
