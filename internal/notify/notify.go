// Package notify sends best-effort desktop notifications and opens
// deliverable files when a workflow finishes. Every failure here is
// swallowed; notifications are a courtesy, not a dependency.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/liwei-chen/wfgate/internal/logging"
)

// CommandRunner starts a command without waiting for its output. Injection
// point for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notifier dispatches notifications for the current platform.
type Notifier struct {
	enabled bool
	timeout time.Duration
	run     CommandRunner
	goos    string
	log     *logging.Logger
}

// New creates a Notifier.
func New(enabled bool, timeout time.Duration, log *logging.Logger) *Notifier {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Notifier{
		enabled: enabled,
		timeout: timeout,
		run:     defaultRunner,
		goos:    runtime.GOOS,
		log:     log,
	}
}

// WithRunner replaces the command runner. Used by tests.
func (n *Notifier) WithRunner(run CommandRunner) *Notifier {
	n.run = run
	return n
}

// Send shows a desktop notification with the given title and message.
func (n *Notifier) Send(title, message string) {
	if !n.enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	var err error
	switch n.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		err = n.run(ctx, "osascript", "-e", script)
	case "linux":
		err = n.run(ctx, "notify-send", title, message)
	default:
		return
	}
	if err != nil {
		n.log.Debug("notification failed", "error", err)
	}
}

// OpenFile opens a file with the platform viewer.
func (n *Notifier) OpenFile(path string) {
	if !n.enabled || path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	var err error
	switch n.goos {
	case "darwin":
		err = n.run(ctx, "open", path)
	case "linux":
		err = n.run(ctx, "xdg-open", path)
	default:
		return
	}
	if err != nil {
		n.log.Debug("open file failed", "path", path, "error", err)
	}
}
