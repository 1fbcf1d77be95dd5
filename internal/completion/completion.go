// Package completion evaluates the wrap-up checklist while the workflow is
// COMPLETING and finalizes the transition to DONE once every required item
// holds. Checks only observe; nothing here commits, archives, or modifies
// the project on the user's behalf.
package completion

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/gitstatus"
	"github.com/liwei-chen/wfgate/internal/logging"
	"github.com/liwei-chen/wfgate/internal/notify"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

// Checklist item names, persisted as keys in the state document.
const (
	ItemGitCommit   = "git_commit"
	ItemArchive     = "archive"
	ItemDeliverable = "deliverable"
)

// Checker evaluates the completion checklist.
type Checker struct {
	cfg      *config.Config
	notifier *notify.Notifier
	log      *logging.Logger

	// newGit builds the working-tree checker for a project dir. Injection
	// point for tests.
	newGit func(dir string) *gitstatus.Checker
}

// New creates a Checker.
func New(cfg *config.Config, notifier *notify.Notifier, log *logging.Logger) *Checker {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Checker{
		cfg:      cfg,
		notifier: notifier,
		log:      log,
		newGit:   gitstatus.NewChecker,
	}
}

// WithGitChecker replaces the working-tree checker factory. Used by tests.
func (c *Checker) WithGitChecker(fn func(dir string) *gitstatus.Checker) *Checker {
	c.newGit = fn
	return c
}

// Evaluate recomputes the checklist and stores it on st. Returns the record.
// Opening the deliverable is informational and does not hold up DONE.
func (c *Checker) Evaluate(st *state.WorkflowState) *state.CompletionRecord {
	now := time.Now().UTC()
	rec := st.Completion
	if rec == nil {
		rec = &state.CompletionRecord{}
		st.Completion = rec
	}
	if rec.Checklist == nil {
		rec.Checklist = make(map[string]bool)
	}

	rec.Checklist[ItemGitCommit] = c.workTreeClean(st)
	rec.Checklist[ItemArchive] = c.changeArchived(st.ChangeID)
	rec.Checklist[ItemDeliverable] = rec.DeliverableOpened

	rec.AllRequiredDone = rec.Checklist[ItemGitCommit] && rec.Checklist[ItemArchive]
	rec.LastCheckedAt = &now
	return rec
}

func (c *Checker) workTreeClean(st *state.WorkflowState) bool {
	if st.ProjectPath == "" {
		return true
	}
	return c.newGit(st.ProjectPath).Clean()
}

// changeArchived reports that the active change directory has been moved out
// of the changes root. A change that never had a directory counts as
// archived; ad-hoc work has nothing to move.
func (c *Checker) changeArchived(changeID string) bool {
	if changeID == "" {
		return true
	}
	active := filepath.Join(c.cfg.Paths.ResolveChangesDir(), changeID)
	if _, err := os.Stat(active); err == nil {
		return false
	}
	return true
}

// ObserveCommand inspects a completed shell command for a deliverable being
// opened, such as `open openspec/changes/x/proposal.md`.
func (c *Checker) ObserveCommand(st *state.WorkflowState, command string) {
	if st.Completion == nil || command == "" {
		return
	}
	lower := strings.ToLower(command)
	opensViewer := strings.Contains(lower, "open ") || strings.Contains(lower, "xdg-open ")
	if !opensViewer {
		return
	}
	if strings.Contains(lower, "proposal.md") || strings.Contains(lower, "tasks.md") {
		st.Completion.DeliverableOpened = true
	}
}

// Finalize moves a COMPLETING workflow to DONE when the checklist is
// satisfied. Returns true when the transition happened.
func (c *Checker) Finalize(st *state.WorkflowState) bool {
	if st.Phase != workflow.PhaseCompleting {
		return false
	}
	rec := c.Evaluate(st)
	if !rec.AllRequiredDone {
		return false
	}

	now := time.Now().UTC()
	st.SetPhase(workflow.PhaseDone)
	st.Timestamps.CompletedAt = &now
	c.log.Info("workflow complete", "change", st.ChangeID)

	if c.notifier != nil {
		c.notifier.Send("Workflow complete", "Change "+st.ChangeID+" is done")
		if p := c.DeliverablePath(st); p != "" && !rec.DeliverableOpened {
			c.notifier.OpenFile(p)
			rec.DeliverableOpened = true
			rec.Checklist[ItemDeliverable] = true
		}
	}
	return true
}

// DeliverablePath locates the proposal document for the change, preferring
// the archived copy.
func (c *Checker) DeliverablePath(st *state.WorkflowState) string {
	if st.ChangeID == "" {
		return ""
	}
	candidates := []string{
		filepath.Join(c.cfg.Paths.ResolveArchiveDir(), st.ChangeID, "proposal.md"),
		filepath.Join(c.cfg.Paths.ResolveChangesDir(), st.ChangeID, "proposal.md"),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Describe renders the checklist as human-readable lines for the status and
// enforce surfaces.
func Describe(rec *state.CompletionRecord) []string {
	if rec == nil {
		return nil
	}
	items := []struct{ key, label string }{
		{ItemGitCommit, "working tree committed"},
		{ItemArchive, "change directory archived"},
		{ItemDeliverable, "deliverable opened"},
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		mark := "✗"
		if rec.Checklist[it.key] {
			mark = "✓"
		}
		lines = append(lines, mark+" "+it.label)
	}
	return lines
}
