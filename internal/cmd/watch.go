package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	sig "github.com/Iron-Ham/conductor/internal/signal"
)

var watchCmd = &cobra.Command{
	Use:   "watch <effort-id>",
	Short: "Stream new signals as workers emit them",
	Long: `Stream new signals as workers emit them. Signals already on disk are
skipped; only those emitted after the watch begins are shown. Ctrl+C
stops the stream.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchPlain bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Disable styled output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if !e.store.Exists(args[0]) {
		fmt.Fprintf(cmd.OutOrStdout(), "Effort %s has no state yet; watching for its first signals\n", args[0])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ch, err := e.machine.Log(args[0]).Watch(ctx, sig.WatchOptions{
		Debounce:     e.cfg.Watch.Debounce(),
		PollInterval: e.cfg.Watch.PollInterval(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for signals... (Ctrl+C to stop)")
	r := e.renderer(watchPlain)
	for s := range ch {
		fmt.Fprintln(cmd.OutOrStdout(), r.SignalLine(s))
	}
	return nil
}
