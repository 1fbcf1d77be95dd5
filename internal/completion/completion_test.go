package completion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/gitstatus"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

// fakeGit returns a checker factory whose working tree is clean or dirty.
func fakeGit(clean bool) func(dir string) *gitstatus.Checker {
	return func(dir string) *gitstatus.Checker {
		return gitstatus.NewChecker(dir).WithExecutor(
			func(ctx context.Context, name string, args ...string) ([]byte, error) {
				if clean {
					return nil, nil
				}
				return []byte(" M main.go\n"), nil
			})
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ChangesDir = filepath.Join(t.TempDir(), "changes")
	cfg.Paths.ArchiveDir = filepath.Join(t.TempDir(), "archive")
	return cfg
}

func completingState(changeID string) *state.WorkflowState {
	st := state.New()
	st.Phase = workflow.PhaseCompleting
	st.ChangeID = changeID
	st.ProjectPath = "/tmp/project"
	return st
}

func TestEvaluateAllSatisfied(t *testing.T) {
	cfg := testConfig(t)
	c := New(cfg, nil, nil).WithGitChecker(fakeGit(true))

	st := completingState("my-change") // no change dir on disk counts as archived
	rec := c.Evaluate(st)
	if !rec.Checklist[ItemGitCommit] || !rec.Checklist[ItemArchive] {
		t.Errorf("checklist = %v", rec.Checklist)
	}
	if !rec.AllRequiredDone {
		t.Error("all required items hold")
	}
	if rec.LastCheckedAt == nil {
		t.Error("evaluation time should be stamped")
	}
}

func TestEvaluateDirtyTree(t *testing.T) {
	c := New(testConfig(t), nil, nil).WithGitChecker(fakeGit(false))

	rec := c.Evaluate(completingState("my-change"))
	if rec.Checklist[ItemGitCommit] {
		t.Error("dirty tree should fail the commit check")
	}
	if rec.AllRequiredDone {
		t.Error("checklist should not be satisfied")
	}
}

func TestEvaluateUnarchivedChange(t *testing.T) {
	cfg := testConfig(t)
	active := filepath.Join(cfg.Paths.ResolveChangesDir(), "my-change")
	if err := os.MkdirAll(active, 0755); err != nil {
		t.Fatal(err)
	}
	c := New(cfg, nil, nil).WithGitChecker(fakeGit(true))

	rec := c.Evaluate(completingState("my-change"))
	if rec.Checklist[ItemArchive] {
		t.Error("change dir still under changes root should fail the archive check")
	}
}

func TestFinalize(t *testing.T) {
	c := New(testConfig(t), nil, nil).WithGitChecker(fakeGit(true))

	st := completingState("my-change")
	if !c.Finalize(st) {
		t.Fatal("satisfied checklist should finalize")
	}
	if st.Phase != workflow.PhaseDone {
		t.Errorf("phase = %s, want DONE", st.Phase)
	}
	if st.Timestamps.CompletedAt == nil {
		t.Error("completion time should be stamped")
	}
}

func TestFinalizeRefusedWhenDirty(t *testing.T) {
	c := New(testConfig(t), nil, nil).WithGitChecker(fakeGit(false))

	st := completingState("my-change")
	if c.Finalize(st) {
		t.Fatal("dirty tree should hold up finalization")
	}
	if st.Phase != workflow.PhaseCompleting {
		t.Errorf("phase = %s, want COMPLETING unchanged", st.Phase)
	}
}

func TestFinalizeOnlyRunsWhileCompleting(t *testing.T) {
	c := New(testConfig(t), nil, nil).WithGitChecker(fakeGit(true))

	st := completingState("my-change")
	st.Phase = workflow.PhaseDevelop
	if c.Finalize(st) {
		t.Error("finalize outside COMPLETING should be a no-op")
	}
}

func TestObserveCommand(t *testing.T) {
	c := New(testConfig(t), nil, nil)
	st := completingState("my-change")
	st.Completion = &state.CompletionRecord{}

	c.ObserveCommand(st, "cat notes.txt")
	if st.Completion.DeliverableOpened {
		t.Error("unrelated command should not count")
	}

	c.ObserveCommand(st, "open openspec/changes/my-change/proposal.md")
	if !st.Completion.DeliverableOpened {
		t.Error("opening the proposal should be noticed")
	}
}

func TestDeliverablePathPrefersArchive(t *testing.T) {
	cfg := testConfig(t)
	c := New(cfg, nil, nil)
	st := completingState("my-change")

	if p := c.DeliverablePath(st); p != "" {
		t.Errorf("no proposal on disk, got %q", p)
	}

	archived := filepath.Join(cfg.Paths.ResolveArchiveDir(), "my-change")
	if err := os.MkdirAll(archived, 0755); err != nil {
		t.Fatal(err)
	}
	proposal := filepath.Join(archived, "proposal.md")
	if err := os.WriteFile(proposal, []byte("# proposal"), 0644); err != nil {
		t.Fatal(err)
	}
	if p := c.DeliverablePath(st); p != proposal {
		t.Errorf("got %q, want %q", p, proposal)
	}
}
