package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liwei-chen/wfgate/internal/logging"
)

// Store is the persistence boundary for the workflow-state document.
// Components take a Store rather than touching the filesystem so tests can
// substitute an in-memory fake.
type Store interface {
	// Load returns the current state. A missing or corrupt document yields
	// a freshly initialized state, never an error: hooks must not fail the
	// orchestrator over infrastructure problems.
	Load() *WorkflowState

	// Save persists the state. Failures are logged and swallowed for the
	// same reason.
	Save(s *WorkflowState)
}

// FileStore persists the state document as a single JSON file, writing
// through a process-unique temp file and an atomic rename so concurrent
// readers never observe a partial document.
//
// There is deliberately no lock across the load-modify-save cycle: two hook
// processes that both Load before either Saves will lose one writer's update
// (last rename wins). Hook invocations are short and the document is
// advisory, so the lost-update race is accepted rather than serialized.
type FileStore struct {
	path string
	log  *logging.Logger
}

// NewFileStore creates a store for the state document at path.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	if log == nil {
		log = logging.NopLogger()
	}
	return &FileStore{path: path, log: log}
}

// Path returns the canonical location of the state document.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads and decodes the state document.
func (fs *FileStore) Load() *WorkflowState {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fs.log.Warn("failed to read state file", "path", fs.path, "error", err)
		}
		return New()
	}

	var s WorkflowState
	if err := json.Unmarshal(data, &s); err != nil {
		fs.log.Warn("state file is corrupt, starting fresh", "path", fs.path, "error", err)
		return New()
	}
	if !s.Phase.IsValid() {
		fs.log.Warn("state file has unknown phase, starting fresh", "phase", string(s.Phase))
		return New()
	}
	return &s
}

// Save writes the state document atomically, stamping last-activity time.
func (fs *FileStore) Save(s *WorkflowState) {
	s.Timestamps.LastActivity = nowUTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fs.log.Error("failed to marshal state", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		fs.log.Error("failed to create state directory", "error", err)
		return
	}

	tmp := fmt.Sprintf("%s.%d.tmp", fs.path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		fs.log.Error("failed to write temp state file", "error", err)
		return
	}

	if err := os.Rename(tmp, fs.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		fs.log.Error("failed to rename state file", "error", err)
	}
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	State *WorkflowState
}

// Load returns the held state, or a fresh one if none was set.
func (m *MemStore) Load() *WorkflowState {
	if m.State == nil {
		return New()
	}
	return m.State
}

// Save replaces the held state.
func (m *MemStore) Save(s *WorkflowState) {
	s.Timestamps.LastActivity = nowUTC()
	m.State = s
}
