package workflow

import "strings"

// Role identifies the kind of sub-agent invoked via a Task delegation.
type Role string

const (
	RoleArchitect Role = "architect"
	RoleDesigner  Role = "designer"
	RoleMigration Role = "migration"
	RoleDeveloper Role = "developer"
	RoleSkills    Role = "skills-agents"
	RoleReviewer  Role = "reviewer"
	RoleTester    Role = "tester"
	RoleDebugger  Role = "debugger"
)

// rolePhases maps each delegated role to the lifecycle phase it operates in.
var rolePhases = map[Role]Phase{
	RoleArchitect: PhasePlanning,
	RoleDesigner:  PhaseDesign,
	RoleMigration: PhaseMigrationPlanning,
	RoleDeveloper: PhaseDevelop,
	RoleSkills:    PhaseSkillCreate,
	RoleReviewer:  PhaseReview,
	RoleTester:    PhaseTest,
	RoleDebugger:  PhaseDebug,
}

// ParseRole normalizes a subagent type string to a known Role.
// Plugin-qualified names ("workflow:reviewer") have their prefix stripped.
// The boolean is false for subagent types outside the workflow.
func ParseRole(subagentType string) (Role, bool) {
	name := strings.ToLower(strings.TrimSpace(subagentType))
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	r := Role(name)
	if _, ok := rolePhases[r]; !ok {
		return "", false
	}
	return r, true
}

// NominalPhase returns the lifecycle phase a role operates in.
func (r Role) NominalPhase() (Phase, bool) {
	p, ok := rolePhases[r]
	return p, ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Status classifies the outcome of a completed delegation.
type Status string

const (
	// StatusApprove indicates a reviewer approved the implementation.
	StatusApprove Status = "APPROVE"
	// StatusReject indicates a reviewer requested changes.
	StatusReject Status = "REJECT"
	// StatusPass indicates a tester verified the implementation.
	StatusPass Status = "PASS"
	// StatusFail indicates a tester found failures.
	StatusFail Status = "FAIL"
	// StatusFixed indicates a debugger finished a repair cycle.
	StatusFixed Status = "FIXED"
	// StatusPending indicates the result text was inconclusive; the phase
	// is left unchanged.
	StatusPending Status = "PENDING"
	// StatusUnknown indicates the role is not part of the workflow.
	StatusUnknown Status = "UNKNOWN"
)
