package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <effort-id>",
	Short: "Pause an effort so no new sessions can start",
	Long: `Pause an effort. While paused, no session can start; in-flight signals
still fold in, so work already underway can report done and be audited.`,
	Args: cobra.ExactArgs(1),
	RunE: runPause,
}

var pauseReason string

func init() {
	rootCmd.AddCommand(pauseCmd)

	pauseCmd.Flags().StringVar(&pauseReason, "reason", "", "Why the effort is being paused (required)")
	_ = pauseCmd.MarkFlagRequired("reason")
}

func runPause(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.Pause(cmd.Context(), args[0], pauseReason); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Effort %s paused\n", args[0])
	return nil
}

var resumeCmd = &cobra.Command{
	Use:   "resume <effort-id>",
	Short: "Resume a paused effort",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.Resume(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Effort %s resumed\n", args[0])
	return nil
}

var completeCmd = &cobra.Command{
	Use:   "complete <effort-id>",
	Short: "Close an effort once every session has completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	updated, err := e.machine.CompleteEffort(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Effort %s completed (%d sessions)\n", args[0], len(updated.Sessions))
	return nil
}
