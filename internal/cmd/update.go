package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/transition"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Post-invocation hook: apply a completed delegation",
	Long: `Reads one completed Task invocation from stdin, classifies its
result, and advances the workflow phase. Wire this as the PostToolUse hook
for Task.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	rt := newRuntime("update")
	defer rt.Close()

	inv, ok := hook.Read(os.Stdin, rt.cfg.Hooks.MaxInputBytes, rt.cfg.Hooks.InputTimeout())
	if !ok || inv.ToolName != hook.ToolTask {
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
