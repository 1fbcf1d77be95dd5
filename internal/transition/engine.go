// Package transition implements the post-invocation side of the workflow:
// observing completed tool calls, classifying delegation outcomes, advancing
// the lifecycle phase, and keeping the checklist and event streams current.
package transition

import (
	"fmt"
	"time"

	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/eventlog"
	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/logging"
	"github.com/liwei-chen/wfgate/internal/notify"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/tasks"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

// Update is what the engine hands back to the hook layer after processing an
// invocation. A non-empty SystemMessage is surfaced to the user.
type Update struct {
	SystemMessage string
	// Status is the classified delegation outcome, for logging and tests.
	Status workflow.Status
}

// Engine applies completed invocations to the workflow state.
type Engine struct {
	cfg        *config.Config
	events     *eventlog.Log
	classifier Classifier
	notifier   *notify.Notifier
	log        *logging.Logger
}

// New creates an Engine. A nil classifier gets the keyword default.
func New(cfg *config.Config, events *eventlog.Log, classifier Classifier, notifier *notify.Notifier, log *logging.Logger) *Engine {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Engine{
		cfg:        cfg,
		events:     events,
		classifier: classifier,
		notifier:   notifier,
		log:        log,
	}
}

// Apply processes one completed invocation, mutating st in place. The caller
// persists st afterward.
func (e *Engine) Apply(inv *hook.Invocation, st *state.WorkflowState) Update {
	st.Timestamps.LastActivity = time.Now().UTC()

	switch inv.ToolName {
	case hook.ToolEdit, hook.ToolWrite:
		return e.applyEdit(inv, st)
	case hook.ToolTask:
		return e.applyDelegation(inv, st)
	default:
		return Update{Status: workflow.StatusUnknown}
	}
}

// applyEdit records the edit and warns when unreviewed edits pile up.
func (e *Engine) applyEdit(inv *hook.Invocation, st *state.WorkflowState) Update {
	if !e.cfg.Enforcement.IsCodeFile(inv.Params.FilePath) {
		return Update{Status: workflow.StatusUnknown}
	}

	e.events.Append(eventlog.Event{
		Kind: eventlog.KindEdit,
		Tool: inv.ToolName,
		File: inv.Params.FilePath,
	})

	if v := e.events.CheckMissingReview(); v != nil {
		return Update{SystemMessage: v.Message, Status: workflow.StatusUnknown}
	}
	return Update{Status: workflow.StatusUnknown}
}

func (e *Engine) applyDelegation(inv *hook.Invocation, st *state.WorkflowState) Update {
	role, ok := workflow.ParseRole(inv.Params.SubagentType)
	if !ok {
		return Update{Status: workflow.StatusUnknown}
	}

	st.Ops.Delegated++
	st.EnsureChangeID(firstNonEmpty(inv.Params.Description, inv.Params.Prompt))

	// The gate may not have seen the delegation start (fresh state file,
	// hooks installed mid-session). Adopt the role's phase when the table
	// allows it so the outcome below lands in the right place.
	nominal, _ := role.NominalPhase()
	if st.Phase != nominal && workflow.CanTransition(st.Phase, nominal) {
		st.SetPhase(nominal)
	}

	switch role {
	case workflow.RoleDeveloper:
		return e.developerDone(inv, st)
	case workflow.RoleReviewer:
		return e.reviewerDone(inv, st)
	case workflow.RoleTester:
		return e.testerDone(inv, st)
	case workflow.RoleDebugger:
		return e.debuggerDone(st)
	default:
		return e.plannerDone(role, st)
	}
}

// plannerDone handles the planning-family roles. They hold their phase until
// a developer delegation moves the workflow forward, but a planner that just
// produced a checklist gets it parsed and summarized right away.
func (e *Engine) plannerDone(role workflow.Role, st *state.WorkflowState) Update {
	e.log.Info("delegation complete", "role", role, "phase", st.Phase)

	doc := e.loadChecklist(st)
	if doc == nil {
		return Update{Status: workflow.StatusUnknown}
	}
	e.refreshSyncInfo(st, doc)

	s := doc.Stats()
	msg := fmt.Sprintf("checklist synced: %d tasks (%d completed)", s.Total, s.Completed)
	if next := doc.NextPending(); next != nil {
		msg += fmt.Sprintf("; next up: %s %s", next.ID, next.Title)
	}
	return Update{SystemMessage: msg, Status: workflow.StatusUnknown}
}

func (e *Engine) developerDone(inv *hook.Invocation, st *state.WorkflowState) Update {
	e.events.Append(eventlog.Event{
		Kind:        eventlog.KindDeveloperComplete,
		Description: inv.Params.Description,
	})

	if st.Task == nil {
		st.Task = &state.TaskPointer{}
	}
	// New code invalidates earlier verdicts for the task.
	st.Task.Reviewed = false
	st.Task.Tested = false

	var msg string
	if id := tasks.ExtractTaskID(inv.Params.Description, inv.Params.Prompt); id != "" && !st.Task.TestFailed {
		st.Task.Current = id
		if changed, err := e.syncStart(st, id); err != nil {
			e.log.Warn("task sync failed", "task", id, "error", err)
		} else if changed {
			msg = fmt.Sprintf("task %s marked in progress", id)
		}
	}

	e.log.Info("developer complete", "task", st.Task.Current, "phase", st.Phase)
	return Update{SystemMessage: msg, Status: workflow.StatusPending}
}

func (e *Engine) reviewerDone(inv *hook.Invocation, st *state.WorkflowState) Update {
	e.events.Append(eventlog.Event{Kind: eventlog.KindReviewerComplete})

	switch e.classifier.Classify(inv.Output) {
	case OutcomePositive:
		now := time.Now().UTC()
		if st.Task == nil {
			st.Task = &state.TaskPointer{}
		}
		st.Task.Reviewed = true
		st.Task.ReviewedAt = &now
		if workflow.CanTransition(st.Phase, workflow.PhaseTest) {
			st.SetPhase(workflow.PhaseTest)
		}
		e.log.Info("review approved", "task", currentTask(st))
		return Update{Status: workflow.StatusApprove}

	case OutcomeNegative:
		if st.Task != nil {
			st.Task.Reviewed = false
		}
		if workflow.CanTransition(st.Phase, workflow.PhaseDevelop) {
			st.SetPhase(workflow.PhaseDevelop)
		}
		e.log.Info("review rejected", "task", currentTask(st))
		return Update{
			SystemMessage: "review rejected; returning to development",
			Status:        workflow.StatusReject,
		}

	default:
		e.log.Info("review inconclusive", "task", currentTask(st))
		return Update{Status: workflow.StatusPending}
	}
}

func (e *Engine) testerDone(inv *hook.Invocation, st *state.WorkflowState) Update {
	e.events.Append(eventlog.Event{Kind: eventlog.KindTesterComplete})

	if st.Task == nil {
		st.Task = &state.TaskPointer{}
	}

	switch e.classifier.Classify(inv.Output) {
	case OutcomePositive:
		st.Task.Tested = true
		st.Task.TestFailed = false

		var msg string
		if st.Task.Current != "" {
			done, err := e.syncComplete(st, st.Task.Current)
			if err != nil {
				e.log.Warn("task sync failed", "task", st.Task.Current, "error", err)
			} else if done {
				msg = fmt.Sprintf("task %s completed", st.Task.Current)
			}
		}

		// A pass always enters wrap-up. Remaining checklist tasks start a
		// fresh cycle once the completion hook has routed this one.
		if workflow.CanTransition(st.Phase, workflow.PhaseCompleting) {
			st.SetPhase(workflow.PhaseCompleting)
			e.notify("Workflow", "Tests passed; running completion checks")
		}
		e.log.Info("tests passed", "phase", st.Phase)
		return Update{SystemMessage: msg, Status: workflow.StatusPass}

	case OutcomeNegative:
		now := time.Now().UTC()
		st.Task.TestFailed = true
		st.Task.FailedAt = &now
		if workflow.CanTransition(st.Phase, workflow.PhaseDebug) {
			st.SetPhase(workflow.PhaseDebug)
		}
		e.log.Info("tests failed", "task", currentTask(st))
		return Update{
			SystemMessage: "tests failed; delegate to Task(debugger)",
			Status:        workflow.StatusFail,
		}

	default:
		e.log.Info("test result inconclusive", "task", currentTask(st))
		return Update{Status: workflow.StatusPending}
	}
}

func (e *Engine) debuggerDone(st *state.WorkflowState) Update {
	now := time.Now().UTC()
	if st.Task == nil {
		st.Task = &state.TaskPointer{}
	}
	st.Task.Debugged = true
	st.Task.DebuggedAt = &now
	st.Task.TestFailed = false
	// The fix is new code; it goes back through review.
	st.Task.Reviewed = false
	st.Task.Tested = false

	if workflow.CanTransition(st.Phase, workflow.PhaseDevelop) {
		st.SetPhase(workflow.PhaseDevelop)
	}
	e.log.Info("debugger complete", "task", currentTask(st))
	return Update{Status: workflow.StatusFixed}
}

// syncStart marks a task in progress in the checklist and refreshes the
// cached sync info.
func (e *Engine) syncStart(st *state.WorkflowState, id string) (bool, error) {
	doc := e.loadChecklist(st)
	if doc == nil {
		return false, nil
	}
	changed, err := tasks.NewSynchronizer(doc, e.log).StartTask(id)
	e.refreshSyncInfo(st, doc)
	return changed, err
}

// syncComplete marks a task completed in the checklist. The reviewed flag on
// the state document authorizes the completion.
func (e *Engine) syncComplete(st *state.WorkflowState, id string) (bool, error) {
	doc := e.loadChecklist(st)
	if doc == nil {
		return false, nil
	}
	reviewed := st.Task != nil && st.Task.Reviewed
	changed, err := tasks.NewSynchronizer(doc, e.log).CompleteTask(id, reviewed)
	e.refreshSyncInfo(st, doc)
	return changed, err
}

func (e *Engine) loadChecklist(st *state.WorkflowState) *tasks.Document {
	path := tasks.FindFile(st.ProjectPath, st.ChangeID, e.cfg.Paths.TasksSearchDirs)
	if path == "" {
		return nil
	}
	doc, err := tasks.Parse(path)
	if err != nil {
		e.log.Warn("failed to parse checklist", "path", path, "error", err)
		return nil
	}
	return doc
}

func (e *Engine) refreshSyncInfo(st *state.WorkflowState, doc *tasks.Document) {
	s := doc.Stats()
	st.TaskSync = &state.TaskSyncInfo{
		TasksFile:  doc.Path,
		TotalTasks: s.Total,
		Completed:  s.Completed,
		InProgress: s.InProgress,
		LastSyncAt: time.Now().UTC(),
	}
	if st.Task != nil {
		st.Task.Total = s.Total
		st.Task.Completed = s.Completed
	}
}

// notify sends a desktop notification. The notifier bounds itself with its
// own timeout, so this never stalls the hook for long.
func (e *Engine) notify(title, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Send(title, message)
}

func currentTask(st *state.WorkflowState) string {
	if st.Task == nil {
		return ""
	}
	return st.Task.Current
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
