// Package gitstatus answers the one git question the completion checklist
// needs: is the working tree clean?
package gitstatus

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// CommandExecutor runs a command and returns its combined output. Injection
// point for tests.
type CommandExecutor func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultExecutor(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Checker inspects a git working tree.
type Checker struct {
	dir     string
	timeout time.Duration
	exec    CommandExecutor
}

// NewChecker creates a Checker for the repository at dir.
func NewChecker(dir string) *Checker {
	return &Checker{dir: dir, timeout: 5 * time.Second, exec: defaultExecutor}
}

// WithExecutor replaces the command executor. Used by tests.
func (c *Checker) WithExecutor(exec CommandExecutor) *Checker {
	c.exec = exec
	return c
}

// Clean reports whether the working tree has no uncommitted changes.
// Errors are treated as clean so a missing git binary or a non-repo
// directory never blocks completion.
func (c *Checker) Clean() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	out, err := c.exec(ctx, "git", "-C", c.dir, "status", "--porcelain")
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(out)) == ""
}
