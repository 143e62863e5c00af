package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <effort-id> <session-id>",
	Short: "Record that a worker began a session",
	Long: `Record that a worker began a session. The session must be pending or
needs_revision, and the effort must not be paused. On a first start the
effort moves from planning to executing.`,
	Args: cobra.ExactArgs(2),
	RunE: runStart,
}

var startBaseline string

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startBaseline, "baseline", "", "Reference to the state of the work before this session")
}

func runStart(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	updated, err := e.machine.Start(cmd.Context(), args[0], sessionID, startBaseline)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s is in progress (effort %s, iteration %d)\n",
		sessionID, updated.Status, updated.Session(sessionID).IterationCount+1)
	return nil
}
