package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import tasks from JSON",
		Long:  "Import tasks from JSON (stdin or file). Accepts the output of export or a plain array of tasks. Tasks get fresh ids and are validated like any new task.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		exitErr("read input", err)
	}

	tasks, err := parseImport(data)
	if err != nil {
		exitErr("parse json", err)
	}

	a := openApp()
	defer a.Close()

	imported, err := importTasks(cmd, a, tasks)
	if err != nil {
		exitErr("import", fmt.Errorf("after %d tasks: %w", imported, err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}

// parseImport accepts either {"tasks": [...]} or [...].
func parseImport(data []byte) ([]model.Task, error) {
	var wrapped struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Tasks != nil {
		return wrapped.Tasks, nil
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// importTasks re-creates each task through the gateway, then restores its
// completed status.
func importTasks(cmd *cobra.Command, a *app, tasks []model.Task) (int, error) {
	user := a.whoami(cmd)
	n := 0
	for _, t := range tasks {
		res, err := a.gateway.Execute(cmd.Context(), user, gateway.CreateTask{Fields: model.TaskFields{
			Title:              t.Title,
			Description:        t.Description,
			IsRecurring:        t.IsRecurring,
			RecurrenceInterval: t.RecurrenceInterval,
			DueDate:            t.DueDate,
		}})
		if err != nil {
			return n, err
		}
		if t.Status == model.StatusCompleted {
			if _, err := a.gateway.Execute(cmd.Context(), user, gateway.CompleteTask{ID: res.Task.ID}); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}
