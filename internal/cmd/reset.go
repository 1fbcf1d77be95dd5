package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/state"
)

var resetHard bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return the workflow to IDLE",
	Long: `Clears the active change and returns the workflow to IDLE.
Delegation counters are kept for reporting unless --hard is given, which
also removes the event and violation streams.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetHard, "hard", false, "also clear counters and event streams")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	rt := newRuntime("")
	defer rt.Close()

	st := rt.store.Load()
	prev := st.Phase
	st.Reset()

	if resetHard {
		st.Ops = state.DelegationCounters{}
		for _, p := range []string{rt.cfg.Paths.EventsFile(), rt.cfg.Paths.ViolationsFile()} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				rt.log.Warn("failed to remove stream", "path", p, "error", err)
			}
		}
	}

	rt.store.Save(st)
	fmt.Printf("workflow reset: %s -> %s\n", prev, st.Phase)
	return nil
}
