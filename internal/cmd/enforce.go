package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/completion"
	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

var enforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Completion hook: evaluate the wrap-up checklist",
	Long: `Evaluates the completion checklist while the workflow is COMPLETING
and finalizes the transition to DONE once every required item holds: the
working tree is committed and the change directory is archived. Checks only
observe; wfgate never commits or archives on the user's behalf. Wire this as
the Stop hook, and as the PostToolUse hook for Bash so deliverable opens are
noticed.`,
	RunE: runEnforce,
}

func init() {
	rootCmd.AddCommand(enforceCmd)
}

func runEnforce(cmd *cobra.Command, args []string) error {
	rt := newRuntime("enforce")
	defer rt.Close()

	st := rt.store.Load()
	checker := completion.New(rt.cfg, rt.notifier, rt.log)

	// A Bash invocation on stdin may be the user opening the deliverable.
	if inv, ok := hook.Read(os.Stdin, rt.cfg.Hooks.MaxInputBytes, rt.cfg.Hooks.InputTimeout()); ok {
		if inv.ToolName == hook.ToolBash {
			checker.ObserveCommand(st, inv.Params.Command)
		}
	}

	if st.Phase != workflow.PhaseCompleting {
		rt.store.Save(st)
		return nil
	}

	if checker.Finalize(st) {
		rt.store.Save(st)
		hook.WriteSystemMessage(os.Stdout, "workflow complete: "+st.ChangeID)
		return nil
	}

	rec := checker.Evaluate(st)
	rt.store.Save(st)

	lines := completion.Describe(rec)
	hook.WriteSystemMessage(os.Stdout,
		"completion checklist not yet satisfied:\n"+strings.Join(lines, "\n"))
	return nil
}
