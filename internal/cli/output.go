package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

func printJSON(w io.Writer, v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func textMode() bool {
	return strings.EqualFold(formatFlag, "text")
}

func writeTask(w io.Writer, t *model.Task) {
	if !textMode() {
		printJSON(w, t)
		return
	}
	fmt.Fprintln(w, taskLine(t, time.Now()))
	if t.Description != "" {
		fmt.Fprintf(w, "    %s\n", t.Description)
	}
}

func writeTasks(w io.Writer, tasks []model.Task) {
	if !textMode() {
		printJSON(w, tasks)
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	now := time.Now()
	for i := range tasks {
		fmt.Fprintln(w, taskLine(&tasks[i], now))
	}
}

func taskLine(t *model.Task, now time.Time) string {
	mark := " "
	if t.Status == model.StatusCompleted {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] #%d %s", mark, t.ID, t.Title)
	if t.IsRecurring {
		line += " (" + string(t.RecurrenceInterval) + ")"
	}
	if t.DueDate != nil {
		line += " due " + t.DueDate.Format("2006-01-02")
		if t.Overdue(now) {
			line += " (overdue)"
		}
	}
	return line
}
