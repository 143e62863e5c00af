package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <effort-id> <session-id>",
	Short: "Record that a worker finished a session's work",
	Long: `Record that a worker finished a session's work and is handing a result
over for audit. The result stays pending until an auditor passes or
fails it.`,
	Args: cobra.ExactArgs(2),
	RunE: runDone,
}

var (
	doneResult  string
	doneSummary string
)

func init() {
	rootCmd.AddCommand(doneCmd)

	doneCmd.Flags().StringVar(&doneResult, "result", "", "Reference to the produced result (required)")
	doneCmd.Flags().StringVar(&doneSummary, "summary", "", "One-line description of what was done")
	_ = doneCmd.MarkFlagRequired("result")
}

func runDone(cmd *cobra.Command, args []string) error {
	sessionID, err := parseSessionID(args[1])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.Done(cmd.Context(), args[0], sessionID, doneResult, doneSummary); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s reported done; result %s awaits audit\n", sessionID, doneResult)
	return nil
}
