// Package workflow defines the development lifecycle state machine: the set
// of phases a unit of work moves through, the delegated agent roles that map
// onto those phases, and the canonical table of allowed phase transitions.
// It is the single source of truth consulted by both the pre-invocation gate
// and the post-invocation transition engine.
package workflow

import "slices"

// Phase represents a discrete stage in the development lifecycle.
type Phase string

const (
	// PhaseIdle is the resting state with no active unit of work.
	PhaseIdle Phase = "IDLE"

	// PhasePlanning is the initial analysis phase where work is decomposed
	// into a task checklist.
	PhasePlanning Phase = "PLANNING"

	// PhaseDesign covers UI/UX or API design work following planning.
	PhaseDesign Phase = "DESIGN"

	// PhaseMigrationPlanning covers schema/data migration planning.
	PhaseMigrationPlanning Phase = "MIGRATION_PLANNING"

	// PhaseDevelop is the implementation phase. Code edits happen here,
	// performed by the delegated developer role.
	PhaseDevelop Phase = "DEVELOP"

	// PhaseSkillCreate covers authoring of reusable skills.
	PhaseSkillCreate Phase = "SKILL_CREATE"

	// PhaseReview is the mandatory code review phase. Code is frozen.
	PhaseReview Phase = "REVIEW"

	// PhaseTest is the verification phase following an approved review.
	// Code is frozen.
	PhaseTest Phase = "TEST"

	// PhaseValidate verifies skill-creation output.
	PhaseValidate Phase = "VALIDATE"

	// PhaseDebug is entered when testing fails; only the debugger role
	// may make progress from here.
	PhaseDebug Phase = "DEBUG"

	// PhaseCompleting is the wrap-up phase where the completion checklist
	// (commit, archive, deliverable handoff) must be satisfied.
	PhaseCompleting Phase = "COMPLETING"

	// PhaseDone indicates the unit of work finished successfully.
	PhaseDone Phase = "DONE"

	// PhaseBlocked indicates an unrecoverable workflow. The only exit is
	// a manual reset back to IDLE.
	PhaseBlocked Phase = "BLOCKED"

	// PhasePaused indicates a manually suspended workflow.
	PhasePaused Phase = "PAUSED"

	// PhaseLoopPaused indicates an automated loop suspended mid-cycle; it
	// resumes into whichever D→R→T phase it was interrupted in.
	PhaseLoopPaused Phase = "LOOP_PAUSED"

	// PhaseLoopCompleting indicates an automated loop entering wrap-up.
	PhaseLoopCompleting Phase = "LOOP_COMPLETING"
)

// AllPhases returns every defined phase.
func AllPhases() []Phase {
	return []Phase{
		PhaseIdle,
		PhasePlanning,
		PhaseDesign,
		PhaseMigrationPlanning,
		PhaseDevelop,
		PhaseSkillCreate,
		PhaseReview,
		PhaseTest,
		PhaseValidate,
		PhaseDebug,
		PhaseCompleting,
		PhaseDone,
		PhaseBlocked,
		PhasePaused,
		PhaseLoopPaused,
		PhaseLoopCompleting,
	}
}

// IsValid reports whether p is a member of the phase enum.
func (p Phase) IsValid() bool {
	return slices.Contains(AllPhases(), p)
}

// IsTerminal reports whether the phase is a terminal state. DONE and BLOCKED
// can only return to IDLE via an explicit reset.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseBlocked
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ValidTransitions defines which phase transitions are allowed.
// This is the canonical source of truth for the workflow state machine:
// the gate blocks any delegation whose nominal phase is not reachable from
// the current phase per this table.
var ValidTransitions = map[Phase][]Phase{
	PhaseIdle:              {PhasePlanning, PhaseDevelop, PhaseSkillCreate},
	PhasePlanning:          {PhaseDesign, PhaseMigrationPlanning, PhaseDevelop, PhaseSkillCreate, PhaseIdle},
	PhaseDesign:            {PhaseDevelop, PhaseIdle},
	PhaseMigrationPlanning: {PhaseDevelop, PhaseIdle},

	// Development must pass through review; there is no edge to TEST.
	PhaseDevelop: {PhaseReview},

	PhaseSkillCreate: {PhaseValidate},

	// APPROVE → TEST, REJECT → DEVELOP.
	PhaseReview: {PhaseTest, PhaseDevelop},

	// PASS → COMPLETING, FAIL → DEBUG or back to DEVELOP.
	PhaseTest: {PhaseCompleting, PhaseDebug, PhaseDevelop},

	PhaseValidate:   {PhaseCompleting, PhaseSkillCreate},
	PhaseDebug:      {PhaseDevelop, PhaseBlocked},
	PhaseCompleting: {PhaseDone, PhaseIdle},

	// A paused loop resumes into whichever D→R→T phase it left.
	PhaseLoopPaused:     {PhaseDevelop, PhaseReview, PhaseTest, PhaseDebug},
	PhaseLoopCompleting: {PhaseCompleting},
	PhasePaused:         {PhaseIdle, PhaseDevelop, PhaseReview, PhaseTest},

	PhaseBlocked: {PhaseIdle},
	PhaseDone:    {PhaseIdle},
}

// CanTransition reports whether the state machine allows moving from one
// phase directly to another.
func CanTransition(from, to Phase) bool {
	return slices.Contains(ValidTransitions[from], to)
}
