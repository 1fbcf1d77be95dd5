package gate

import (
	"strings"
	"testing"

	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/eventlog"
	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

func testGate() *Gate {
	return New(config.Default(), nil)
}

func stateIn(phase workflow.Phase) *state.WorkflowState {
	s := state.New()
	s.Phase = phase
	return s
}

func editInv(path string) *hook.Invocation {
	return &hook.Invocation{ToolName: hook.ToolEdit, Params: hook.Params{FilePath: path}}
}

func taskInv(role string) *hook.Invocation {
	return &hook.Invocation{ToolName: hook.ToolTask, Params: hook.Params{SubagentType: role}}
}

func TestMainAgentCodeEditBlocked(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseDevelop)

	res := g.Check(editInv("main.go"), st)
	if res.Allowed {
		t.Fatal("main-agent code edit should be blocked")
	}
	if !strings.Contains(res.Reason, "developer") {
		t.Errorf("reason should point at the developer role, got %q", res.Reason)
	}
	if res.Violation == nil || res.Violation.Type != eventlog.ViolationMainAgentCodeEdit {
		t.Errorf("violation = %+v", res.Violation)
	}
	if st.Ops.Blocked != 1 || !res.StateDirty {
		t.Errorf("blocked counter should increment and state be dirty")
	}
}

func TestSubagentEditAllowed(t *testing.T) {
	g := testGate()
	inv := editInv("main.go")
	inv.Params.InSubagent = true

	res := g.Check(inv, stateIn(workflow.PhaseDevelop))
	if !res.Allowed {
		t.Errorf("sub-agent edit should be allowed, got %q", res.Reason)
	}
}

func TestNonCodeEditAllowed(t *testing.T) {
	g := testGate()
	res := g.Check(editInv("notes.md"), stateIn(workflow.PhaseDevelop))
	if !res.Allowed {
		t.Errorf("markdown edit should be allowed, got %q", res.Reason)
	}
}

func TestTestModeAllowsDirectEdits(t *testing.T) {
	cfg := config.Default()
	cfg.Enforcement.TestMode = true
	g := New(cfg, nil)
	st := stateIn(workflow.PhaseDevelop)

	res := g.Check(editInv("main.go"), st)
	if !res.Allowed {
		t.Fatalf("test mode should allow direct edits, got %q", res.Reason)
	}
	if st.Ops.DirectEdits != 1 {
		t.Errorf("direct edit counter = %d, want 1", st.Ops.DirectEdits)
	}
}

func TestCodeFrozenDuringReviewAndTest(t *testing.T) {
	g := testGate()
	for _, phase := range []workflow.Phase{workflow.PhaseReview, workflow.PhaseTest} {
		inv := editInv("main.go")
		inv.Params.InSubagent = true // freeze applies even inside sub-agents

		res := g.Check(inv, stateIn(phase))
		if res.Allowed {
			t.Errorf("edit during %s should be blocked", phase)
		}
		if res.Violation == nil || res.Violation.Type != eventlog.ViolationBlockedEdit {
			t.Errorf("violation during %s = %+v", phase, res.Violation)
		}
	}
}

func TestMainAgentEditDuringFreezeIsMainAgentViolation(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseReview)

	res := g.Check(editInv("main.go"), st)
	if res.Allowed {
		t.Fatal("main-agent edit during REVIEW should be blocked")
	}
	if res.Violation == nil || res.Violation.Type != eventlog.ViolationMainAgentCodeEdit {
		t.Errorf("violation = %+v, want main-agent classification", res.Violation)
	}
}

func TestTesterBlockedFromDevelop(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("tester"), stateIn(workflow.PhaseDevelop))
	if res.Allowed {
		t.Fatal("tester from DEVELOP should be blocked")
	}
	if !strings.Contains(res.Reason, "reviewer") {
		t.Errorf("reason should direct to the reviewer first, got %q", res.Reason)
	}
}

func TestReviewerAllowedFromDevelop(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("reviewer"), stateIn(workflow.PhaseDevelop))
	if !res.Allowed {
		t.Errorf("reviewer from DEVELOP should be allowed, got %q", res.Reason)
	}
}

func TestTesterAllowedFromReview(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("tester"), stateIn(workflow.PhaseReview))
	if !res.Allowed {
		t.Errorf("tester from REVIEW should be allowed, got %q", res.Reason)
	}
}

func TestReviewerAllowedFromReview(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("reviewer"), stateIn(workflow.PhaseReview))
	if !res.Allowed {
		t.Errorf("a re-review from REVIEW should be allowed, got %q", res.Reason)
	}
}

func TestReviewerBlockedFromTest(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("reviewer"), stateIn(workflow.PhaseTest))
	if res.Allowed {
		t.Error("reviewer from TEST should be blocked")
	}
}

func TestFailedTestsRequireDebugger(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseDebug)
	st.Task = &state.TaskPointer{Current: "1.1", TestFailed: true}

	res := g.Check(taskInv("developer"), st)
	if res.Allowed {
		t.Fatal("developer while tests are failing should be blocked")
	}
	if !strings.Contains(res.Reason, "debugger") {
		t.Errorf("reason should direct to the debugger, got %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "1.1") {
		t.Errorf("reason should name the failing task, got %q", res.Reason)
	}

	res = g.Check(taskInv("debugger"), st)
	if !res.Allowed {
		t.Errorf("debugger while tests are failing should be allowed, got %q", res.Reason)
	}
}

func TestReviewedWorkMustBeTested(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseTest)
	st.Task = &state.TaskPointer{Current: "1.1", Reviewed: true}

	res := g.Check(taskInv("developer"), st)
	if res.Allowed {
		t.Fatal("developer while review awaits testing should be blocked")
	}
	if !strings.Contains(res.Reason, "tester") {
		t.Errorf("reason should direct to the tester, got %q", res.Reason)
	}

	res = g.Check(taskInv("tester"), st)
	if !res.Allowed {
		t.Errorf("tester should be allowed, got %q", res.Reason)
	}
}

func TestTransitionTableFallback(t *testing.T) {
	g := testGate()

	// DEVELOP only transitions to REVIEW, so an architect delegation is out.
	res := g.Check(taskInv("architect"), stateIn(workflow.PhaseDevelop))
	if res.Allowed {
		t.Fatal("architect from DEVELOP should be blocked")
	}
	if !strings.Contains(res.Reason, string(workflow.PhaseReview)) {
		t.Errorf("reason should list the valid next phases, got %q", res.Reason)
	}

	res = g.Check(taskInv("architect"), stateIn(workflow.PhaseIdle))
	if !res.Allowed {
		t.Errorf("architect from IDLE should be allowed, got %q", res.Reason)
	}
}

func TestUnknownSubagentAllowed(t *testing.T) {
	g := testGate()
	res := g.Check(taskInv("general-purpose"), stateIn(workflow.PhaseReview))
	if !res.Allowed {
		t.Errorf("non-workflow sub-agent should be outside the gate, got %q", res.Reason)
	}
}

func TestCompletingBlocksAllDelegations(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseCompleting)
	st.Completion = &state.CompletionRecord{
		Checklist:       map[string]bool{"git_commit": false, "archive": true},
		AllRequiredDone: false,
	}

	// Even a non-workflow role is held until wrap-up is done.
	res := g.Check(taskInv("general-purpose"), st)
	if res.Allowed {
		t.Fatal("delegation during COMPLETING should be blocked until the checklist is satisfied")
	}
	if !strings.Contains(res.Reason, "completion checklist") {
		t.Errorf("reason should cite the checklist, got %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "✗ working tree committed") {
		t.Errorf("reason should list the outstanding items, got %q", res.Reason)
	}
	if st.Ops.Blocked != 1 || !res.StateDirty {
		t.Error("blocked counter should increment and state be dirty")
	}

	res = g.Check(taskInv("developer"), st)
	if res.Allowed {
		t.Error("workflow roles are held during COMPLETING too")
	}
}

func TestCompletingWithChecklistDoneAllowsDelegation(t *testing.T) {
	g := testGate()
	st := stateIn(workflow.PhaseCompleting)
	st.Completion = &state.CompletionRecord{AllRequiredDone: true}

	res := g.Check(taskInv("general-purpose"), st)
	if !res.Allowed {
		t.Errorf("satisfied checklist should release the hold, got %q", res.Reason)
	}
}

func TestBashAllowed(t *testing.T) {
	g := testGate()
	inv := &hook.Invocation{ToolName: hook.ToolBash, Params: hook.Params{Command: "go test ./..."}}
	if res := g.Check(inv, stateIn(workflow.PhaseReview)); !res.Allowed {
		t.Errorf("bash should pass through, got %q", res.Reason)
	}
}
