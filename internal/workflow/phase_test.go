package workflow

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Phase
		to   Phase
		want bool
	}{
		{"idle to planning", PhaseIdle, PhasePlanning, true},
		{"idle to develop", PhaseIdle, PhaseDevelop, true},
		{"develop to review", PhaseDevelop, PhaseReview, true},
		{"develop to test skips review", PhaseDevelop, PhaseTest, false},
		{"review to test", PhaseReview, PhaseTest, true},
		{"review back to develop", PhaseReview, PhaseDevelop, true},
		{"test to completing", PhaseTest, PhaseCompleting, true},
		{"test to debug", PhaseTest, PhaseDebug, true},
		{"debug to develop", PhaseDebug, PhaseDevelop, true},
		{"done is terminal", PhaseDone, PhaseDevelop, false},
		{"self transition not listed", PhaseDevelop, PhaseDevelop, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransitionTableOnlyContainsValidPhases(t *testing.T) {
	for from, targets := range ValidTransitions {
		if !from.IsValid() {
			t.Errorf("transition table has unknown source phase %q", from)
		}
		for _, to := range targets {
			if !to.IsValid() {
				t.Errorf("transition table maps %s to unknown phase %q", from, to)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !PhaseDone.IsTerminal() {
		t.Error("DONE should be terminal")
	}
	if !PhaseBlocked.IsTerminal() {
		t.Error("BLOCKED should be terminal")
	}
	if PhaseDevelop.IsTerminal() {
		t.Error("DEVELOP should not be terminal")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"reviewer", RoleReviewer, true},
		{"Reviewer", RoleReviewer, true},
		{"workflow:reviewer", RoleReviewer, true},
		{"  developer ", RoleDeveloper, true},
		{"skills-agents", RoleSkills, true},
		{"general-purpose", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNominalPhase(t *testing.T) {
	p, ok := RoleReviewer.NominalPhase()
	if !ok || p != PhaseReview {
		t.Errorf("reviewer nominal phase = %s, want %s", p, PhaseReview)
	}
	if _, ok := Role("nope").NominalPhase(); ok {
		t.Error("unknown role should have no nominal phase")
	}
}
