package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [effort-id]",
	Short: "Show the current state of an effort",
	Long: `Show the current state of an effort: sessions grouped by phase, open
questions, and the most recent signal. Unprocessed signals are folded
into the view without being written back, so status always reflects
what workers have reported. Without an effort ID, lists known efforts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var statusPlain bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusPlain, "plain", false, "Disable styled output")
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if len(args) == 0 {
		efforts, err := e.store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(efforts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No efforts found.")
			return nil
		}
		for _, id := range efforts {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	}

	summary, err := e.coordinator().Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), e.renderer(statusPlain).Status(summary))
	return nil
}

var reviewCmd = &cobra.Command{
	Use:   "review <effort-id> <session-id>",
	Short: "Show a session's full review packet",
	Long: `Show everything an auditor needs to judge a session: every result
reported since the baseline, the issues from each failed iteration,
questions, escalations, and the state-change history.`,
	Args: cobra.ExactArgs(2),
	RunE: runReview,
}

var reviewPlain bool

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().BoolVar(&reviewPlain, "plain", false, "Disable styled output")
}

func runReview(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	packet, err := e.machine.ReviewPacket(cmd.Context(), args[0], sessionID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), e.renderer(reviewPlain).Review(packet))
	return nil
}
