package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

// Replies mention tasks as #<id> so a later "it" can find them.
func describeTask(t *model.Task) string {
	s := fmt.Sprintf("#%d %s", t.ID, t.Title)
	if t.IsRecurring {
		s += fmt.Sprintf(" (repeats %s)", t.RecurrenceInterval)
	}
	if t.DueDate != nil {
		s += " due " + t.DueDate.Format("2006-01-02")
	}
	return s
}

func renderResult(cmd gateway.Command, res *gateway.Result) string {
	switch c := cmd.(type) {
	case gateway.CreateTask:
		return "Added " + describeTask(res.Task) + "."
	case gateway.UpdateTask:
		return "Updated " + describeTask(res.Task) + "."
	case gateway.CompleteTask:
		return "Completed " + describeTask(res.Task) + "."
	case gateway.ReopenTask:
		return "Reopened " + describeTask(res.Task) + "."
	case gateway.DeleteTask:
		return fmt.Sprintf("Deleted #%d.", c.ID)
	case gateway.GetTask:
		return fmt.Sprintf("%s [%s]", describeTask(res.Task), res.Task.Status)
	case gateway.ListTasks:
		return renderList(c.Status, res.Tasks)
	}
	return "Done."
}

func renderList(status *model.Status, tasks []model.Task) string {
	label := "tasks"
	if status != nil {
		label = string(*status) + " tasks"
	}
	if len(tasks) == 0 {
		return "You have no " + label + "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your %s:", label)
	for i := range tasks {
		mark := " "
		if tasks[i].Status == model.StatusCompleted {
			mark = "x"
		}
		fmt.Fprintf(&b, "\n[%s] %s", mark, describeTask(&tasks[i]))
	}
	return b.String()
}

// renderError phrases a recoverable command failure for the user.
func renderError(cmd gateway.Command, err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("I couldn't do that: %s %s.", ve.Field, ve.Reason)
	}
	if errors.Is(err, model.ErrNotFound) {
		if id, ok := targetID(cmd); ok {
			return fmt.Sprintf("I couldn't find task #%d.", id)
		}
		return "I couldn't find that task."
	}
	return "Something went wrong: " + err.Error()
}

func targetID(cmd gateway.Command) (int64, bool) {
	switch c := cmd.(type) {
	case gateway.UpdateTask:
		return c.ID, true
	case gateway.CompleteTask:
		return c.ID, true
	case gateway.ReopenTask:
		return c.ID, true
	case gateway.DeleteTask:
		return c.ID, true
	case gateway.GetTask:
		return c.ID, true
	}
	return 0, false
}
