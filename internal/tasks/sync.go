package tasks

import (
	"fmt"

	"github.com/liwei-chen/wfgate/internal/logging"
)

// Synchronizer applies workflow events to the checklist document. Each
// method loads nothing itself; the caller parses the document, invokes the
// relevant method, and the Synchronizer saves only when something changed.
type Synchronizer struct {
	doc *Document
	log *logging.Logger
}

// NewSynchronizer wraps a parsed document.
func NewSynchronizer(doc *Document, log *logging.Logger) *Synchronizer {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Synchronizer{doc: doc, log: log}
}

// StartTask marks a pending task in progress when a developer picks it up.
// Already-started or completed tasks are left alone.
func (s *Synchronizer) StartTask(id string) (bool, error) {
	t := s.doc.Find(id)
	if t == nil {
		return false, fmt.Errorf("task %s not found in %s", id, s.doc.Path)
	}
	if t.Status != StatusPending {
		return false, nil
	}
	if err := s.doc.SetStatus(id, StatusInProgress); err != nil {
		return false, err
	}
	if err := s.doc.Save(); err != nil {
		return false, err
	}
	s.log.Info("task started", "task", id, "file", s.doc.Path)
	return true, nil
}

// CompleteTask marks a task completed. Completion requires the task's work
// to have passed review; an unreviewed completion attempt is refused so the
// checklist can never show green for code nobody looked at.
func (s *Synchronizer) CompleteTask(id string, reviewed bool) (bool, error) {
	t := s.doc.Find(id)
	if t == nil {
		return false, fmt.Errorf("task %s not found in %s", id, s.doc.Path)
	}
	if t.Completed() {
		return false, nil
	}
	if !reviewed {
		return false, fmt.Errorf("task %s has not passed review; delegate to a reviewer before marking it complete", id)
	}
	if err := s.doc.SetStatus(id, StatusCompleted); err != nil {
		return false, err
	}
	if err := s.doc.Save(); err != nil {
		return false, err
	}
	s.log.Info("task completed", "task", id, "file", s.doc.Path)
	return true, nil
}

// DeferTask marks a task deferred, excluding it from completion checks.
func (s *Synchronizer) DeferTask(id string) (bool, error) {
	t := s.doc.Find(id)
	if t == nil {
		return false, fmt.Errorf("task %s not found in %s", id, s.doc.Path)
	}
	if t.Status == StatusDeferred {
		return false, nil
	}
	if err := s.doc.SetStatus(id, StatusDeferred); err != nil {
		return false, err
	}
	if err := s.doc.Save(); err != nil {
		return false, err
	}
	s.log.Info("task deferred", "task", id, "file", s.doc.Path)
	return true, nil
}
