package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/signal"
)

var signalsCmd = &cobra.Command{
	Use:   "signals <effort-id>",
	Short: "List the effort's signal log in chronological order",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignals,
}

var (
	signalsSession string
	signalsSince   string
	signalsPlain   bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVarP(&signalsSession, "session", "s", "", "Only signals for this session")
	signalsCmd.Flags().StringVar(&signalsSince, "since", "", "Only signals at or after this time (RFC3339)")
	signalsCmd.Flags().BoolVar(&signalsPlain, "plain", false, "Disable styled output")
}

func runSignals(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	log := e.machine.Log(args[0])
	ctx := cmd.Context()

	var signals []*signal.Signal
	switch {
	case signalsSession != "":
		id, err := parseSessionID(signalsSession)
		if err != nil {
			return err
		}
		signals, err = log.ListForSession(ctx, id)
		if err != nil {
			return err
		}
	case signalsSince != "":
		t, err := time.Parse(time.RFC3339, signalsSince)
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid --since value %q: want RFC3339", signalsSince))
		}
		signals, err = log.ListSince(ctx, t)
		if err != nil {
			return err
		}
	default:
		var err error
		signals, err = log.List(ctx)
		if err != nil {
			return err
		}
	}

	if len(signals) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No signals.")
		return nil
	}

	r := e.renderer(signalsPlain)
	for _, sig := range signals {
		fmt.Fprintln(cmd.OutOrStdout(), r.SignalLine(sig))
	}
	return nil
}
