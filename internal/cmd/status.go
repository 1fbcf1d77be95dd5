package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/completion"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/util"
	"github.com/liwei-chen/wfgate/internal/workflow"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current workflow state",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "re-render whenever the state file changes")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt := newRuntime("")
	defer rt.Close()

	render := func() {
		st := rt.store.Load()
		fmt.Print(renderStatus(st))
	}

	if !statusWatch {
		render()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic renames replace the inode
	// and a file watch would go stale after the first save.
	stateDir := rt.cfg.Paths.ResolveStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := watcher.Add(stateDir); err != nil {
		return fmt.Errorf("watch state directory: %w", err)
	}

	clearAndRender := func() {
		fmt.Print("\033[2J\033[H")
		render()
	}
	clearAndRender()

	stateFile := rt.cfg.Paths.StateFile()
	// Debounce: a save is a write plus a rename in quick succession.
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == filepath.Clean(stateFile) {
				pending = time.After(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-pending:
			pending = nil
			clearAndRender()
		}
	}
}

var (
	statusTitle = lipgloss.NewStyle().Bold(true)
	statusDim   = lipgloss.NewStyle().Faint(true)
	statusPhase = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func renderStatus(st *state.WorkflowState) string {
	var b strings.Builder

	b.WriteString(statusTitle.Render("Workflow") + "  " + statusPhase.Render(string(st.Phase)) + "\n")
	if st.PreviousPhase != "" && st.PreviousPhase != st.Phase {
		b.WriteString(statusDim.Render("previous: "+string(st.PreviousPhase)) + "\n")
	}
	if st.ChangeID != "" {
		b.WriteString("change:  " + st.ChangeID + "\n")
	}
	if st.ProjectPath != "" {
		b.WriteString("project: " + st.ProjectPath + "\n")
	}

	if t := st.Task; t != nil {
		b.WriteString("\n" + statusTitle.Render("Task") + "\n")
		if t.Current != "" {
			b.WriteString("current: " + t.Current + "\n")
		}
		flags := taskFlags(t)
		if len(flags) > 0 {
			b.WriteString("flags:   " + strings.Join(flags, ", ") + "\n")
		}
	}

	if ts := st.TaskSync; ts != nil && ts.TotalTasks > 0 {
		b.WriteString(fmt.Sprintf("\n%s %d/%d completed",
			statusTitle.Render("Checklist"), ts.Completed, ts.TotalTasks))
		if ts.InProgress > 0 {
			b.WriteString(fmt.Sprintf(", %d in progress", ts.InProgress))
		}
		b.WriteString("\n" + util.TruncateANSI(statusDim.Render(ts.TasksFile), 80) + "\n")
	}

	if st.Phase == workflow.PhaseCompleting && st.Completion != nil {
		b.WriteString("\n" + statusTitle.Render("Completion") + "\n")
		for _, line := range completion.Describe(st.Completion) {
			b.WriteString("  " + line + "\n")
		}
	}

	ops := st.Ops
	b.WriteString(fmt.Sprintf("\ndelegated %d  direct %d  blocked %d\n",
		ops.Delegated, ops.DirectEdits, ops.Blocked))
	if ops.Blocked > 0 {
		b.WriteString(statusWarn.Render("blocked operations recorded; run wfgate report") + "\n")
	}
	return b.String()
}

func taskFlags(t *state.TaskPointer) []string {
	var flags []string
	if t.Reviewed {
		flags = append(flags, "reviewed")
	}
	if t.Tested {
		flags = append(flags, "tested")
	}
	if t.TestFailed {
		flags = append(flags, "test failed")
	}
	if t.Debugged {
		flags = append(flags, "debugged")
	}
	return flags
}
