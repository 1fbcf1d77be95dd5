package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/gate"
	"github.com/liwei-chen/wfgate/internal/hook"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Pre-invocation hook: allow or block a tool call",
	Long: `Reads one tool invocation from stdin and writes an allow or block
decision to stdout. Wire this as the PreToolUse hook for Task, Edit, and
Write. Infrastructure failures always allow; only policy blocks.`,
	RunE: runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	rt := newRuntime("gate")
	defer rt.Close()

	inv, ok := hook.Read(os.Stdin, rt.cfg.Hooks.MaxInputBytes, rt.cfg.Hooks.InputTimeout())
	if !ok {
		hook.WriteDecision(os.Stdout, hook.Decision{Decision: hook.DecisionAllow})
		return nil
	}

	st := rt.store.Load()
	res := gate.New(rt.cfg, rt.log).Check(inv, st)

	if res.Violation != nil {
		rt.events.AppendViolation(*res.Violation)
	}
	if res.StateDirty {
		rt.store.Save(st)
	}

	if res.Allowed {
		hook.WriteDecision(os.Stdout, hook.Decision{Decision: hook.DecisionAllow})
	} else {
		hook.WriteDecision(os.Stdout, hook.Decision{Decision: hook.DecisionBlock, Reason: res.Reason})
	}
	return nil
}
