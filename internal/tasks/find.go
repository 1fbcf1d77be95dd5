package tasks

import (
	"os"
	"path/filepath"
	"regexp"
)

// FindFile locates the checklist document for a project. The change-specific
// file under openspec/changes/<changeID>/tasks.md wins; otherwise each search
// directory is probed for a tasks.md, nearest first.
func FindFile(projectPath, changeID string, searchDirs []string) string {
	if projectPath == "" {
		return ""
	}

	if changeID != "" {
		p := filepath.Join(projectPath, "openspec", "changes", changeID, "tasks.md")
		if fileExists(p) {
			return p
		}
	}

	for _, dir := range searchDirs {
		p := filepath.Join(projectPath, dir, "tasks.md")
		if fileExists(p) {
			return p
		}
	}

	// Any change directory with a checklist is better than nothing.
	matches, _ := filepath.Glob(filepath.Join(projectPath, "openspec", "changes", "*", "tasks.md"))
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// taskRefRe extracts a task identifier from delegation text, matching
// phrasings like "task 1.2", "Task 3", or a bare leading "1.2 ".
var taskRefRe = regexp.MustCompile(`(?i)\btask\s+(\d+(?:\.\d+)*)`)

var leadingIDRe = regexp.MustCompile(`^\s*(\d+\.\d+)\b`)

// ExtractTaskID pulls a task identifier out of a delegation prompt or
// description. Returns "" when no reference is found.
func ExtractTaskID(texts ...string) string {
	for _, text := range texts {
		if m := taskRefRe.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	for _, text := range texts {
		if m := leadingIDRe.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
