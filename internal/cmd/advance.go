package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/effort"
)

var advanceCmd = &cobra.Command{
	Use:   "advance <effort-id> [session-id]",
	Short: "Start the next eligible session",
	Long: `Start the next eligible session: the first pending session whose
earlier phases have all completed. Name a session to start that one
instead; it must still satisfy its phase dependencies.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAdvance,
}

var advanceBaseline string

func init() {
	rootCmd.AddCommand(advanceCmd)

	advanceCmd.Flags().StringVar(&advanceBaseline, "baseline", "", "Reference to the state of the work before this session")
}

func runAdvance(cmd *cobra.Command, args []string) error {
	var sessionID effort.SessionID
	if len(args) == 2 {
		id, err := parseSessionID(args[1])
		if err != nil {
			return err
		}
		sessionID = id
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	started, err := e.coordinator().Advance(cmd.Context(), args[0], sessionID, advanceBaseline)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Started session %s\n", started)
	return nil
}
