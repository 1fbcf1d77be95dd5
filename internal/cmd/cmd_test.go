package cmd

import (
	"strings"
	"testing"

	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"gate", "update", "track", "enforce", "tasksync", "report", "status", "reset"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	st := state.New()
	st.ChangeID = "add-auth"
	st.SetPhase(workflow.PhaseDevelop)
	st.Task = &state.TaskPointer{Current: "1.2", Reviewed: true}
	st.TaskSync = &state.TaskSyncInfo{TasksFile: "/p/tasks.md", TotalTasks: 4, Completed: 1}
	st.Ops.Blocked = 1

	out := renderStatus(st)
	for _, want := range []string{"DEVELOP", "add-auth", "1.2", "reviewed", "1/4", "wfgate report"} {
		if !strings.Contains(out, want) {
			t.Errorf("status should contain %q:\n%s", want, out)
		}
	}
}

func TestRenderStatusIdle(t *testing.T) {
	out := renderStatus(state.New())
	if !strings.Contains(out, "IDLE") {
		t.Errorf("idle status should name the phase:\n%s", out)
	}
}
