package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/session"
)

var initCmd = &cobra.Command{
	Use:   "init <effort-id> <session-id[:title]>...",
	Short: "Create a new effort with its planned sessions",
	Long: `Create a new effort and register its planned sessions.

Session IDs are phase.number, optionally with a letter suffix, and may
carry a title after a colon:

  conductor init auth-refactor 1.1:"extract token store" 1.2 2.1`,
	Args: cobra.MinimumNArgs(2),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// parseSessionSpecs turns id[:title] arguments into session specs.
func parseSessionSpecs(args []string) ([]session.SessionSpec, error) {
	specs := make([]session.SessionSpec, 0, len(args))
	for _, arg := range args {
		raw, title, _ := strings.Cut(arg, ":")
		id, err := parseSessionID(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, session.SessionSpec{ID: id, Title: title})
	}
	return specs, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	effortID := args[0]
	if err := effort.ValidateEffortID(effortID); err != nil {
		return err
	}
	specs, err := parseSessionSpecs(args[1:])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	created, err := e.machine.Init(cmd.Context(), effortID, specs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized effort %s with %d sessions\n", effortID, len(created.Sessions))
	fmt.Fprintf(cmd.OutOrStdout(), "State directory: %s\n", e.store.EffortDir(effortID))
	return nil
}

var addCmd = &cobra.Command{
	Use:   "add <effort-id> <session-id[:title]>...",
	Short: "Add planned sessions to an existing effort",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	specs, err := parseSessionSpecs(args[1:])
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.machine.AddSessions(cmd.Context(), args[0], specs); err != nil {
		return errors.Wrapf(err, "failed to add sessions to %s", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d sessions to %s\n", len(specs), args[0])
	return nil
}
