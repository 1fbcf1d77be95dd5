// Package tasks parses and updates the markdown task checklist that drives a
// change. The checklist is the single source of truth for task progress; this
// package rewrites only the status mark of the affected line and leaves every
// other byte of the document alone.
package tasks

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Status is the checklist mark of a task.
type Status string

const (
	StatusPending    Status = " "
	StatusInProgress Status = "~"
	StatusCompleted  Status = "x"
	StatusDeferred   Status = ">"
)

// ExecutionMode controls how the tasks of a group may be delegated.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
)

// Group is one `## N. Title (options)` section of the checklist.
type Group struct {
	Number  int
	Title   string
	Mode    ExecutionMode
	Agent   string
	Depends []string
}

// Task is one checklist item.
type Task struct {
	// ID is the task identifier, such as "1.1" or "2.3".
	ID     string
	Title  string
	Status Status
	Group  *Group
	// Files lists the files the task is expected to touch.
	Files []string
	// Output names the task's expected deliverable.
	Output string

	line int
}

// Completed reports whether the task mark is x or X.
func (t *Task) Completed() bool { return t.Status == StatusCompleted }

// Document is a parsed checklist retaining the original lines so updates
// rewrite only what changed.
type Document struct {
	Path  string
	Tasks []*Task

	lines []string
}

// itemRe matches `- [<mark>] <id> <title>` with optional `| files: ...` and
// `| output: ...` trailers in either order.
var itemRe = regexp.MustCompile(`^(\s*)- \[([ xX~>])\]\s+(\d+(?:\.\d+)*)\s+(.*)$`)

// groupRe matches `## <n>. <title>` with an optional parenthetical option
// list. The numeric prefix is optional; unnumbered headers still form groups.
var groupRe = regexp.MustCompile(`^##\s+(?:(\d+)\.\s+)?(.+?)(?:\s*\(([^)]*)\))?\s*$`)

// Parse reads and parses the checklist at path.
func Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	doc := parseContent(string(data))
	doc.Path = path
	return doc, nil
}

func parseContent(content string) *Document {
	doc := &Document{lines: strings.Split(content, "\n")}

	var group *Group
	for i, line := range doc.lines {
		if m := groupRe.FindStringSubmatch(line); m != nil {
			group = parseGroup(m)
			continue
		}
		m := itemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		task := &Task{
			ID:     m[3],
			Status: normalizeStatus(m[2]),
			Group:  group,
			line:   i,
		}
		task.Title, task.Files, task.Output = parseTrailers(m[4])
		doc.Tasks = append(doc.Tasks, task)
	}
	return doc
}

func parseGroup(m []string) *Group {
	g := &Group{Title: strings.TrimSpace(m[2]), Mode: ModeSequential}
	g.Number, _ = strconv.Atoi(m[1])

	for _, opt := range strings.Split(m[3], ",") {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == string(ModeParallel):
			g.Mode = ModeParallel
		case opt == string(ModeSequential):
			g.Mode = ModeSequential
		case strings.HasPrefix(opt, "agent:"):
			g.Agent = strings.TrimSpace(strings.TrimPrefix(opt, "agent:"))
		case strings.HasPrefix(opt, "depends:"):
			dep := strings.TrimSpace(strings.TrimPrefix(opt, "depends:"))
			if dep != "" {
				g.Depends = append(g.Depends, dep)
			}
		}
	}
	return g
}

// parseTrailers splits `<title> | files: a.go, b.go | output: report.md`.
func parseTrailers(rest string) (title string, files []string, output string) {
	parts := strings.Split(rest, "|")
	title = strings.TrimSpace(parts[0])

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "files:"):
			for _, f := range strings.Split(strings.TrimPrefix(part, "files:"), ",") {
				if f = strings.TrimSpace(f); f != "" {
					files = append(files, f)
				}
			}
		case strings.HasPrefix(part, "output:"):
			output = strings.TrimSpace(strings.TrimPrefix(part, "output:"))
		}
	}
	return title, files, output
}

func normalizeStatus(mark string) Status {
	switch mark {
	case "x", "X":
		return StatusCompleted
	case "~":
		return StatusInProgress
	case ">":
		return StatusDeferred
	default:
		return StatusPending
	}
}

// Find returns the task with the given ID, or nil.
func (d *Document) Find(id string) *Task {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// SetStatus updates a task's mark in memory. Save persists it.
func (d *Document) SetStatus(id string, status Status) error {
	t := d.Find(id)
	if t == nil {
		return fmt.Errorf("task %s not found in %s", id, d.Path)
	}

	line := d.lines[t.line]
	open := strings.Index(line, "[")
	if open < 0 || open+2 >= len(line) || line[open+2] != ']' {
		return fmt.Errorf("task %s line is not a checklist item", id)
	}
	d.lines[t.line] = line[:open+1] + string(status) + line[open+2:]
	t.Status = status
	return nil
}

// Save writes the document back atomically via a temp file and rename.
func (d *Document) Save() error {
	content := strings.Join(d.lines, "\n")
	tmp := fmt.Sprintf("%s.%d.tmp", d.Path, os.Getpid())
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	if err := os.Rename(tmp, d.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace tasks file: %w", err)
	}
	return nil
}

// Stats summarizes checklist progress.
type Stats struct {
	Total      int
	Completed  int
	InProgress int
	Deferred   int
}

// Stats computes progress counters over the parsed tasks.
func (d *Document) Stats() Stats {
	var s Stats
	s.Total = len(d.Tasks)
	for _, t := range d.Tasks {
		switch t.Status {
		case StatusCompleted:
			s.Completed++
		case StatusInProgress:
			s.InProgress++
		case StatusDeferred:
			s.Deferred++
		}
	}
	return s
}

// NextPending returns the first task that is neither completed nor deferred,
// or nil when all work is done.
func (d *Document) NextPending() *Task {
	for _, t := range d.Tasks {
		if t.Status == StatusPending || t.Status == StatusInProgress {
			return t
		}
	}
	return nil
}

// AllDone reports whether every task is completed or deferred.
func (d *Document) AllDone() bool {
	return d.NextPending() == nil
}
