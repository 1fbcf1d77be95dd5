package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call, err error) CommandRunner {
	return func(ctx context.Context, name string, args ...string) error {
		*calls = append(*calls, call{name, args})
		return err
	}
}

func testNotifier(goos string, calls *[]call, err error) *Notifier {
	n := New(true, time.Second, nil).WithRunner(recorder(calls, err))
	n.goos = goos
	return n
}

func TestSendLinux(t *testing.T) {
	var calls []call
	testNotifier("linux", &calls, nil).Send("Workflow", "done")
	if len(calls) != 1 || calls[0].name != "notify-send" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSendDarwin(t *testing.T) {
	var calls []call
	testNotifier("darwin", &calls, nil).Send("Workflow", "done")
	if len(calls) != 1 || calls[0].name != "osascript" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSendUnsupportedPlatform(t *testing.T) {
	var calls []call
	testNotifier("windows", &calls, nil).Send("Workflow", "done")
	if len(calls) != 0 {
		t.Errorf("unsupported platform should be a no-op, got %+v", calls)
	}
}

func TestSendDisabled(t *testing.T) {
	var calls []call
	n := New(false, time.Second, nil).WithRunner(recorder(&calls, nil))
	n.goos = "linux"
	n.Send("Workflow", "done")
	if len(calls) != 0 {
		t.Errorf("disabled notifier should be silent, got %+v", calls)
	}
}

func TestSendSwallowsFailures(t *testing.T) {
	var calls []call
	// Must not panic or propagate.
	testNotifier("linux", &calls, errors.New("no notification daemon")).Send("x", "y")
}

func TestOpenFile(t *testing.T) {
	var calls []call
	testNotifier("linux", &calls, nil).OpenFile("/tmp/proposal.md")
	if len(calls) != 1 || calls[0].name != "xdg-open" {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].args[0] != "/tmp/proposal.md" {
		t.Errorf("args = %v", calls[0].args)
	}
}

func TestOpenFileEmptyPath(t *testing.T) {
	var calls []call
	testNotifier("linux", &calls, nil).OpenFile("")
	if len(calls) != 0 {
		t.Errorf("empty path should be a no-op, got %+v", calls)
	}
}
