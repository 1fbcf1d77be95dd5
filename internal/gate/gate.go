// Package gate decides whether a tool invocation may proceed given the
// current workflow state. Rules are evaluated in a fixed order; the first
// rule that blocks wins and its reason is returned verbatim to the
// orchestrator. Infrastructure failures never block; only policy does.
package gate

import (
	"fmt"
	"strings"

	"github.com/liwei-chen/wfgate/internal/completion"
	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/eventlog"
	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/logging"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

// Result is the gate verdict for one invocation.
type Result struct {
	Allowed bool
	Reason  string
	// Violation, when non-nil, is recorded in the violation stream.
	Violation *eventlog.Violation
	// StateDirty reports that counters on the state document changed and
	// the caller must persist it.
	StateDirty bool
}

func allow() Result { return Result{Allowed: true} }

// Gate evaluates invocations against workflow policy.
type Gate struct {
	cfg *config.Config
	log *logging.Logger
}

// New creates a Gate.
func New(cfg *config.Config, log *logging.Logger) *Gate {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Gate{cfg: cfg, log: log}
}

// Check evaluates one invocation. It may mutate counters on st; the caller
// persists st when Result.StateDirty is set.
func (g *Gate) Check(inv *hook.Invocation, st *state.WorkflowState) Result {
	switch inv.ToolName {
	case hook.ToolEdit, hook.ToolWrite:
		return g.checkEdit(inv, st)
	case hook.ToolTask:
		return g.checkDelegation(inv, st)
	default:
		return allow()
	}
}

// freezePhases are the phases during which direct code edits are always
// blocked, even inside a sub-agent. Review and test verdicts must describe
// the code as it was delegated.
var freezePhases = map[workflow.Phase]bool{
	workflow.PhaseReview: true,
	workflow.PhaseTest:   true,
}

func (g *Gate) checkEdit(inv *hook.Invocation, st *state.WorkflowState) Result {
	path := inv.Params.FilePath
	if !g.cfg.Enforcement.IsCodeFile(path) {
		return allow()
	}

	// The main-agent restriction is evaluated before the code freeze, so a
	// main-agent edit during REVIEW or TEST is classified as a main-agent
	// violation rather than a freeze violation.
	if !inv.Params.InSubagent && g.cfg.Enforcement.MainAgentLimits && !g.cfg.Enforcement.TestMode {
		st.Ops.Blocked++
		reason := fmt.Sprintf("the main agent must not edit code directly; delegate %s to Task(developer)", path)
		g.log.Warn("blocked main-agent code edit", "phase", st.Phase, "file", path)
		return Result{
			Reason: reason,
			Violation: &eventlog.Violation{
				Type:     eventlog.ViolationMainAgentCodeEdit,
				Severity: "error",
				Message:  reason,
				Files:    []string{path},
			},
			StateDirty: true,
		}
	}

	if freezePhases[st.Phase] {
		st.Ops.Blocked++
		reason := fmt.Sprintf("code is frozen during %s; wait for the verdict before editing %s", st.Phase, path)
		g.log.Warn("blocked edit during code freeze", "phase", st.Phase, "file", path)
		return Result{
			Reason: reason,
			Violation: &eventlog.Violation{
				Type:     eventlog.ViolationBlockedEdit,
				Severity: "error",
				Message:  reason,
				Files:    []string{path},
			},
			StateDirty: true,
		}
	}

	if inv.Params.InSubagent {
		return allow()
	}

	st.Ops.DirectEdits++
	return Result{Allowed: true, StateDirty: true}
}

func (g *Gate) checkDelegation(inv *hook.Invocation, st *state.WorkflowState) Result {
	// During COMPLETING no new work may start, workflow role or not, until
	// the wrap-up checklist is satisfied.
	if st.Phase == workflow.PhaseCompleting {
		if st.Completion == nil || !st.Completion.AllRequiredDone {
			reason := "completion checklist not satisfied; finish wrap-up before delegating new work"
			if items := completion.Describe(st.Completion); len(items) > 0 {
				reason += ":\n" + strings.Join(items, "\n")
			}
			return g.block(st, reason)
		}
	}

	role, ok := workflow.ParseRole(inv.Params.SubagentType)
	if !ok {
		// Not a workflow role; outside this gate's jurisdiction.
		return allow()
	}

	// A failed test run freezes everything except debugging.
	if st.Task != nil && st.Task.TestFailed && role != workflow.RoleDebugger {
		return g.block(st, fmt.Sprintf(
			"tests failed for task %s; delegate to Task(debugger) before any other role (attempted %s)",
			taskLabel(st), role))
	}

	// Reviewed but untested work must go to a tester next.
	if st.Task != nil && st.Task.Reviewed && !st.Task.Tested && role != workflow.RoleTester {
		return g.block(st, fmt.Sprintf(
			"the current task passed review and awaits testing; delegate to Task(tester) (attempted %s)", role))
	}

	switch role {
	case workflow.RoleTester:
		if st.Phase == workflow.PhaseDevelop {
			return g.block(st,
				"code must pass review before testing; delegate to Task(reviewer) first")
		}
		// An approved review has already advanced the phase to TEST.
		if st.Phase != workflow.PhaseReview && st.Phase != workflow.PhaseTest && st.Phase != workflow.PhaseIdle {
			return g.block(st, fmt.Sprintf(
				"a tester can only follow an approved review (current: %s)", st.Phase))
		}
	case workflow.RoleReviewer:
		// REVIEW itself is accepted so a re-review can follow an
		// inconclusive verdict that already adopted the phase.
		if st.Phase != workflow.PhaseDevelop && st.Phase != workflow.PhaseReview && st.Phase != workflow.PhaseIdle {
			return g.block(st, fmt.Sprintf(
				"a reviewer can only be delegated from %s (current: %s)", workflow.PhaseDevelop, st.Phase))
		}
	default:
		target, _ := role.NominalPhase()
		if st.Phase != target && !workflow.CanTransition(st.Phase, target) {
			return g.block(st, fmt.Sprintf(
				"cannot move from %s to %s; valid next phases: %s",
				st.Phase, target, phaseList(workflow.ValidTransitions[st.Phase])))
		}
	}

	return allow()
}

func (g *Gate) block(st *state.WorkflowState, reason string) Result {
	st.Ops.Blocked++
	g.log.Warn("blocked delegation", "phase", st.Phase, "reason", reason)
	return Result{Reason: reason, StateDirty: true}
}

func taskLabel(st *state.WorkflowState) string {
	if st.Task == nil || st.Task.Current == "" {
		return "(unknown)"
	}
	return st.Task.Current
}

func phaseList(phases []workflow.Phase) string {
	if len(phases) == 0 {
		return "none"
	}
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
