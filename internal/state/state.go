// Package state defines the persisted workflow-state document and the store
// used to load and save it. The document is a singleton per user: one JSON
// file describing the current lifecycle phase, the active unit of work, and
// the delegation statistics accumulated for it.
package state

import (
	"time"

	"github.com/liwei-chen/wfgate/internal/workflow"
)

// Version is the schema version written into new state documents.
const Version = "2.0"

// WorkflowState is the singleton workflow-state document.
type WorkflowState struct {
	Version string `json:"version"`

	// Phase is the current lifecycle phase. Always a member of the
	// workflow.Phase enum.
	Phase workflow.Phase `json:"state"`

	// PreviousPhase is the phase before the most recent transition. It is
	// only ever set by SetPhase, never supplied by callers directly.
	PreviousPhase workflow.Phase `json:"previousState,omitempty"`

	// ChangeID identifies the current unit of work. Set before entering
	// any phase other than IDLE; auto-generated for ad-hoc work.
	ChangeID string `json:"changeId,omitempty"`

	// ProjectPath is the project root the workflow operates on, used to
	// locate the task checklist.
	ProjectPath string `json:"projectPath,omitempty"`

	Task       *TaskPointer       `json:"task,omitempty"`
	TaskSync   *TaskSyncInfo      `json:"taskSync,omitempty"`
	Ops        DelegationCounters `json:"mainAgentOps"`
	Completion *CompletionRecord  `json:"completion,omitempty"`
	Timestamps Timestamps         `json:"timestamps"`
}

// TaskPointer tracks the checklist task currently being worked on, plus the
// transient review/test flags that enforce D→R→T ordering at the data layer.
type TaskPointer struct {
	Current   string `json:"current,omitempty"`
	Total     int    `json:"total,omitempty"`
	Completed int    `json:"completed,omitempty"`

	// Reviewed is set when the reviewer approves the current task. The
	// checklist synchronizer refuses to mark a task completed while this
	// is false.
	Reviewed   bool       `json:"reviewed,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`

	// Tested is set when the tester passes the current task.
	Tested bool `json:"tested,omitempty"`

	// TestFailed is set when the tester reports a failure. While true,
	// only the debugger role may make progress.
	TestFailed bool       `json:"testFailed,omitempty"`
	FailedAt   *time.Time `json:"failedAt,omitempty"`

	Debugged   bool       `json:"debugged,omitempty"`
	DebuggedAt *time.Time `json:"debuggedAt,omitempty"`
}

// TaskSyncInfo caches the result of the last checklist parse. The checklist
// document itself remains the source of truth; these values are recomputed
// from a full re-parse on every sync.
type TaskSyncInfo struct {
	TasksFile  string    `json:"tasksFile,omitempty"`
	TotalTasks int       `json:"totalTasks"`
	Completed  int       `json:"completed"`
	InProgress int       `json:"inProgress"`
	LastSyncAt time.Time `json:"lastSyncAt"`
}

// DelegationCounters accumulates main-agent operation statistics for the
// lifetime of a change. Counters only ever increase.
type DelegationCounters struct {
	DirectEdits int `json:"directEdits"`
	Delegated   int `json:"delegated"`
	Blocked     int `json:"blocked"`
	Bypassed    int `json:"bypassed"`
}

// CompletionRecord tracks the wrap-up checklist evaluated while COMPLETING.
type CompletionRecord struct {
	Checklist         map[string]bool `json:"checklist,omitempty"`
	AllRequiredDone   bool            `json:"allRequiredDone"`
	LastCheckedAt     *time.Time      `json:"lastCheckedAt,omitempty"`
	DeliverableOpened bool            `json:"deliverableOpened,omitempty"`
}

// Timestamps records workflow lifecycle times.
type Timestamps struct {
	WorkflowStarted *time.Time `json:"workflowStarted,omitempty"`
	StateChanged    *time.Time `json:"stateChanged,omitempty"`
	LastActivity    time.Time  `json:"lastActivity"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// New returns a freshly initialized state document in IDLE.
func New() *WorkflowState {
	return &WorkflowState{
		Version: Version,
		Phase:   workflow.PhaseIdle,
		Timestamps: Timestamps{
			LastActivity: time.Now().UTC(),
		},
	}
}

// SetPhase records a transition to the given phase, preserving the previous
// phase for audit and stamping the workflow start on first leaving IDLE.
func (s *WorkflowState) SetPhase(p workflow.Phase) {
	now := time.Now().UTC()
	s.PreviousPhase = s.Phase
	s.Phase = p
	s.Timestamps.StateChanged = &now
	if p != workflow.PhaseIdle && s.Timestamps.WorkflowStarted == nil {
		s.Timestamps.WorkflowStarted = &now
	}
}

// Reset returns the document to IDLE, clearing the unit of work but keeping
// the accumulated delegation counters for reporting.
func (s *WorkflowState) Reset() {
	s.SetPhase(workflow.PhaseIdle)
	s.ChangeID = ""
	s.Task = nil
	s.Completion = nil
}

// EnsureChangeID assigns an ad-hoc change identifier derived from the given
// free text if none is set yet.
func (s *WorkflowState) EnsureChangeID(prompt string) {
	if s.ChangeID == "" {
		s.ChangeID = AdHocChangeID(prompt, time.Now())
	}
}
