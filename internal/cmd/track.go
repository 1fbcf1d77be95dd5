package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/transition"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Post-invocation hook: record a completed edit",
	Long: `Reads one completed Edit or Write invocation from stdin and appends
it to the event stream, warning when unreviewed edits accumulate past the
configured threshold. Wire this as the PostToolUse hook for Edit and Write.`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	rt := newRuntime("track")
	defer rt.Close()

	inv, ok := hook.Read(os.Stdin, rt.cfg.Hooks.MaxInputBytes, rt.cfg.Hooks.InputTimeout())
	if !ok || (inv.ToolName != hook.ToolEdit && inv.ToolName != hook.ToolWrite) {
		return nil
	}

	st := rt.store.Load()
	engine := transition.New(rt.cfg, rt.events, nil, rt.notifier, rt.log)
	upd := engine.Apply(inv, st)
	rt.store.Save(st)

	if upd.SystemMessage != "" {
		hook.WriteSystemMessage(os.Stdout, upd.SystemMessage)
	}
	return nil
}
