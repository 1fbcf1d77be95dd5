// Package eventlog maintains the append-only audit trail of edit and
// role-completion events, and derives D→R→T violations from it.
//
// Unlike the state document, the event stream is safe under concurrent hook
// processes by construction: every append is a single O_APPEND write with no
// read-before-write, so records from concurrent writers interleave but are
// never lost or torn. Current pending-work counters are recomputed on every
// read by replaying unexpired records in arrival order.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/liwei-chen/wfgate/internal/logging"
)

// Kind identifies the type of a logged event.
type Kind string

const (
	// KindEdit records a direct Edit/Write tool completion.
	KindEdit Kind = "edit"
	// KindDeveloperComplete records a finished developer delegation.
	KindDeveloperComplete Kind = "developer_complete"
	// KindReviewerComplete records a finished reviewer delegation.
	KindReviewerComplete Kind = "reviewer_complete"
	// KindTesterComplete records a finished tester delegation.
	KindTesterComplete Kind = "tester_complete"
)

// Event is one immutable record of the event stream. Timestamp is set at
// append time and is authoritative for staleness expiry.
type Event struct {
	Kind        Kind   `json:"type"`
	Tool        string `json:"tool,omitempty"`
	File        string `json:"file,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	ISOTime     string `json:"iso_time,omitempty"`
}

// Violation types derived from event analysis.
const (
	ViolationMissingReview     = "missing_review"
	ViolationMainAgentCodeEdit = "main_agent_code_edit"
	ViolationBlockedEdit       = "blocked_edit"
)

// Violation is one derived rule breach, appended to its own stream and
// read-only thereafter.
type Violation struct {
	Type         string   `json:"type"`
	Severity     string   `json:"severity"`
	Message      string   `json:"message"`
	Reason       string   `json:"reason,omitempty"`
	PendingEdits int      `json:"pendingEdits,omitempty"`
	Files        []string `json:"files,omitempty"`
	Timestamp    int64    `json:"timestamp"`
	ISOTime      string   `json:"iso_time,omitempty"`
}

// Options configures a Log.
type Options struct {
	// StaleWindow is how long a record contributes to pending counters.
	StaleWindow time.Duration
	// WarnThresholdEdits is the pending-edit count above which a
	// MISSING_REVIEW violation is emitted.
	WarnThresholdEdits int
	// MaxLogSizeBytes triggers truncation of the event stream.
	MaxLogSizeBytes int64
	// KeepRecords is how many of the newest records survive truncation.
	KeepRecords int
}

// Log is the event/violation stream pair.
type Log struct {
	eventsPath     string
	violationsPath string
	opts           Options
	log            *logging.Logger
	now            func() time.Time
}

// New creates a Log writing to the given stream paths.
func New(eventsPath, violationsPath string, opts Options, log *logging.Logger) *Log {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Log{
		eventsPath:     eventsPath,
		violationsPath: violationsPath,
		opts:           opts,
		log:            log,
		now:            time.Now,
	}
}

// Append stamps and appends one event. Failures are logged and swallowed;
// the audit trail is advisory and must never fail the orchestrator.
func (l *Log) Append(e Event) {
	now := l.now()
	e.Timestamp = now.UnixMilli()
	e.ISOTime = now.UTC().Format(time.RFC3339)

	l.appendLine(l.eventsPath, e)
	l.truncateIfNeeded()
}

// AppendViolation stamps and appends one violation record.
func (l *Log) AppendViolation(v Violation) {
	now := l.now()
	v.Timestamp = now.UnixMilli()
	v.ISOTime = now.UTC().Format(time.RFC3339)

	l.appendLine(l.violationsPath, v)
}

// appendLine writes one JSON line in a single O_APPEND write.
func (l *Log) appendLine(path string, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		l.log.Error("failed to marshal event record", "error", err)
		return
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		l.log.Error("failed to create event log directory", "error", err)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.log.Error("failed to open event log", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		l.log.Error("failed to append event record", "path", path, "error", err)
	}
}

// ReadRecent returns the unexpired events in arrival order. Unparseable
// lines are skipped, not fatal.
func (l *Log) ReadRecent() []Event {
	f, err := os.Open(l.eventsPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	cutoff := l.now().Add(-l.opts.StaleWindow).UnixMilli()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if e.Timestamp >= cutoff {
			events = append(events, e)
		}
	}
	return events
}

// ReadViolations returns every recorded violation in arrival order.
func (l *Log) ReadViolations() []Violation {
	f, err := os.Open(l.violationsPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	var violations []Violation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var v Violation
		if err := json.Unmarshal(line, &v); err != nil {
			continue
		}
		violations = append(violations, v)
	}
	return violations
}

// truncateIfNeeded rewrites the event stream keeping only the newest
// KeepRecords records once the file exceeds the byte ceiling. This is the
// only non-append mutation of the stream and is best-effort.
func (l *Log) truncateIfNeeded() {
	info, err := os.Stat(l.eventsPath)
	if err != nil || info.Size() <= l.opts.MaxLogSizeBytes {
		return
	}

	data, err := os.ReadFile(l.eventsPath)
	if err != nil {
		l.log.Warn("failed to read event log for truncation", "error", err)
		return
	}

	lines := splitNonEmptyLines(data)
	if len(lines) <= l.opts.KeepRecords {
		return
	}
	kept := lines[len(lines)-l.opts.KeepRecords:]

	var buf []byte
	for _, line := range kept {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	tmp := l.eventsPath + ".tmp"
	if err := os.WriteFile(tmp, buf, 0644); err != nil {
		l.log.Warn("failed to write truncated event log", "error", err)
		return
	}
	if err := os.Rename(tmp, l.eventsPath); err != nil {
		_ = os.Remove(tmp)
		l.log.Warn("failed to replace event log", "error", err)
	}
}

func splitNonEmptyLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
