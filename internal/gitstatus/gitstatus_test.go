package gitstatus

import (
	"context"
	"errors"
	"testing"
)

func fixed(out string, err error) CommandExecutor {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestCleanTree(t *testing.T) {
	c := NewChecker("/tmp/repo").WithExecutor(fixed("", nil))
	if !c.Clean() {
		t.Error("empty porcelain output means clean")
	}
}

func TestDirtyTree(t *testing.T) {
	c := NewChecker("/tmp/repo").WithExecutor(fixed(" M main.go\n?? new.go\n", nil))
	if c.Clean() {
		t.Error("porcelain output means dirty")
	}
}

func TestWhitespaceOnlyOutputIsClean(t *testing.T) {
	c := NewChecker("/tmp/repo").WithExecutor(fixed("\n  \n", nil))
	if !c.Clean() {
		t.Error("whitespace-only output should count as clean")
	}
}

func TestGitErrorTreatedAsClean(t *testing.T) {
	c := NewChecker("/tmp/repo").WithExecutor(fixed("", errors.New("not a git repository")))
	if !c.Clean() {
		t.Error("git failure must not block completion")
	}
}

func TestExecutorReceivesRepoDir(t *testing.T) {
	var gotArgs []string
	c := NewChecker("/work/proj").WithExecutor(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return nil, nil
		})
	c.Clean()

	want := []string{"git", "-C", "/work/proj", "status", "--porcelain"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args = %v, want %v", gotArgs, want)
		}
	}
}
