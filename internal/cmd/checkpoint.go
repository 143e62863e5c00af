package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/coordinator"
	"github.com/Iron-Ham/conductor/internal/errors"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Write and read coordinator continuity checkpoints",
	Long: `Continuity checkpoints let one coordinator hand an effort to the next.
Each checkpoint is a numbered markdown document with a machine-readable
header; superseded checkpoints are kept, never deleted.`,
}

var checkpointWriteCmd = &cobra.Command{
	Use:   "write <effort-id>",
	Short: "Write the next checkpoint for an effort",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointWrite,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show <effort-id> [generation]",
	Short: "Show the latest checkpoint, or a specific generation",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCheckpointShow,
}

var (
	checkpointReason    string
	checkpointQuestions []string
	checkpointNarrative string
	checkpointPlain     bool
)

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointWriteCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)

	checkpointWriteCmd.Flags().StringVar(&checkpointReason, "reason", "", "Why the handoff is happening (required)")
	checkpointWriteCmd.Flags().StringArrayVar(&checkpointQuestions, "question", nil, "An open question for the successor (repeatable)")
	checkpointWriteCmd.Flags().StringVar(&checkpointNarrative, "narrative", "", "Free-form handoff notes; - reads from stdin")

	checkpointShowCmd.Flags().BoolVar(&checkpointPlain, "plain", false, "Disable styled output")
}

func runCheckpointWrite(cmd *cobra.Command, args []string) error {
	narrative := checkpointNarrative
	if narrative == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		narrative = string(data)
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	cp, err := e.coordinator().WriteCheckpoint(cmd.Context(), args[0], checkpointReason, checkpointQuestions, narrative)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (generation %d)\n", cp.Filename(), cp.Generation)
	return nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	coord := e.coordinator()

	var cp *coordinator.Checkpoint
	if len(args) == 2 {
		generation, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid generation %q", args[1]))
		}
		all, err := coord.ListCheckpoints(args[0])
		if err != nil {
			return err
		}
		for _, candidate := range all {
			if candidate.Generation == generation {
				cp = candidate
				break
			}
		}
		if cp == nil {
			return errors.NewNotFoundError("checkpoint", args[1])
		}
	} else {
		cp, err = coord.LatestCheckpoint(args[0])
		if err != nil {
			return err
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), e.renderer(checkpointPlain).Checkpoint(cp))
	return nil
}
