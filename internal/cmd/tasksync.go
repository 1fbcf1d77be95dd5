package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/hook"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/tasks"
	"github.com/liwei-chen/wfgate/internal/transition"
)

var tasksyncCmd = &cobra.Command{
	Use:   "tasksync",
	Short: "Inspect or update the task checklist",
	Long: `Without a subcommand, tasksync acts as a PostToolUse hook: it reads
a completed Task invocation from stdin and syncs the checklist the same way
wfgate update does. The list/start/complete/defer subcommands are for
humans.`,
	RunE: runTasksyncHook,
}

// runTasksyncHook mirrors the update hook so orchestrators that wire a
// dedicated checklist hook get identical behavior.
func runTasksyncHook(cmd *cobra.Command, args []string) error {
	rt := newRuntime("tasksync")
	defer rt.Close()

	inv, ok := hook.Read(os.Stdin, rt.cfg.Hooks.MaxInputBytes, rt.cfg.Hooks.InputTimeout())
	if !ok || inv.ToolName != hook.ToolTask {
		return nil
	}

	st := rt.store.Load()
	upd := transition.New(rt.cfg, rt.events, nil, rt.notifier, rt.log).Apply(inv, st)
	rt.store.Save(st)

	if upd.SystemMessage != "" {
		hook.WriteSystemMessage(os.Stdout, upd.SystemMessage)
	}
	return nil
}

var tasksyncListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checklist tasks and their status",
	RunE:  runTasksyncList,
}

var tasksyncStartCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Mark a task in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasksyncApply(args[0], func(s *tasks.Synchronizer, id string, _ bool) (bool, error) {
			return s.StartTask(id)
		})
	},
}

var tasksyncCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task completed (requires the task to have passed review)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasksyncApply(args[0], func(s *tasks.Synchronizer, id string, reviewed bool) (bool, error) {
			return s.CompleteTask(id, reviewed)
		})
	},
}

var tasksyncDeferCmd = &cobra.Command{
	Use:   "defer <task-id>",
	Short: "Mark a task deferred",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasksyncApply(args[0], func(s *tasks.Synchronizer, id string, _ bool) (bool, error) {
			return s.DeferTask(id)
		})
	},
}

func init() {
	tasksyncCmd.AddCommand(tasksyncListCmd, tasksyncStartCmd, tasksyncCompleteCmd, tasksyncDeferCmd)
	rootCmd.AddCommand(tasksyncCmd)
}

func loadChecklist(rt *runtime, st *state.WorkflowState) (*tasks.Document, error) {
	path := tasks.FindFile(st.ProjectPath, st.ChangeID, rt.cfg.Paths.TasksSearchDirs)
	if path == "" {
		// Fall back to the working directory when no workflow is active.
		path = tasks.FindFile(".", "", rt.cfg.Paths.TasksSearchDirs)
	}
	if path == "" {
		return nil, fmt.Errorf("no tasks.md found; set paths.tasks_search_dirs or run from the project root")
	}
	return tasks.Parse(path)
}

func runTasksyncList(cmd *cobra.Command, args []string) error {
	rt := newRuntime("")
	defer rt.Close()

	doc, err := loadChecklist(rt, rt.store.Load())
	if err != nil {
		return err
	}

	var group *tasks.Group
	for _, t := range doc.Tasks {
		if t.Group != group {
			group = t.Group
			if group != nil {
				if group.Number > 0 {
					fmt.Printf("%d. %s (%s)\n", group.Number, group.Title, group.Mode)
				} else {
					fmt.Printf("%s (%s)\n", group.Title, group.Mode)
				}
			}
		}
		fmt.Printf("  [%s] %s %s\n", string(t.Status), t.ID, t.Title)
	}

	s := doc.Stats()
	fmt.Printf("\n%d/%d completed", s.Completed, s.Total)
	if s.InProgress > 0 {
		fmt.Printf(", %d in progress", s.InProgress)
	}
	if s.Deferred > 0 {
		fmt.Printf(", %d deferred", s.Deferred)
	}
	fmt.Println()
	return nil
}

func tasksyncApply(id string, fn func(*tasks.Synchronizer, string, bool) (bool, error)) error {
	rt := newRuntime("")
	defer rt.Close()

	st := rt.store.Load()
	doc, err := loadChecklist(rt, st)
	if err != nil {
		return err
	}

	reviewed := st.Task != nil && st.Task.Reviewed
	changed, err := fn(tasks.NewSynchronizer(doc, rt.log), id, reviewed)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Printf("task %s unchanged\n", id)
		return nil
	}

	s := doc.Stats()
	if st.TaskSync == nil {
		st.TaskSync = &state.TaskSyncInfo{}
	}
	st.TaskSync.TasksFile = doc.Path
	st.TaskSync.TotalTasks = s.Total
	st.TaskSync.Completed = s.Completed
	st.TaskSync.InProgress = s.InProgress
	st.TaskSync.LastSyncAt = time.Now().UTC()
	rt.store.Save(st)

	fmt.Printf("task %s updated (%d/%d completed)\n", id, s.Completed, s.Total)
	return nil
}
