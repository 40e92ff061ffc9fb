package gateway

import "github.com/rcliao/todo-bridge/internal/model"

// Command is one task operation. The set is closed: only the types in
// this file implement it.
type Command interface {
	// Name identifies the command in logs and chat tool_calls.
	Name() string
	command()
}

type CreateTask struct {
	Fields model.TaskFields
}

type UpdateTask struct {
	ID    int64
	Patch model.TaskPatch
}

type CompleteTask struct {
	ID int64
}

// ReopenTask sets a task back to pending.
type ReopenTask struct {
	ID int64
}

type DeleteTask struct {
	ID int64
}

// ListTasks lists the owner's tasks, optionally filtered by status.
type ListTasks struct {
	Status *model.Status
}

type GetTask struct {
	ID int64
}

// SearchTasks finds the owner's tasks whose title or description contains Query.
type SearchTasks struct {
	Query  string
	Status *model.Status
	Limit  int
}

func (CreateTask) Name() string   { return "add_task" }
func (UpdateTask) Name() string   { return "update_task" }
func (CompleteTask) Name() string { return "complete_task" }
func (ReopenTask) Name() string   { return "reopen_task" }
func (DeleteTask) Name() string   { return "delete_task" }
func (ListTasks) Name() string    { return "list_tasks" }
func (GetTask) Name() string      { return "get_task" }
func (SearchTasks) Name() string  { return "search_tasks" }

func (CreateTask) command()   {}
func (UpdateTask) command()   {}
func (CompleteTask) command() {}
func (ReopenTask) command()   {}
func (DeleteTask) command()   {}
func (ListTasks) command()    {}
func (GetTask) command()      {}
func (SearchTasks) command()  {}

// Result carries what a command produced. Task is set for single-task
// commands (for DeleteTask it is nil and Deleted is true); Tasks is set
// for ListTasks and SearchTasks.
type Result struct {
	Command string
	Task    *model.Task
	Tasks   []model.Task
	Deleted bool
}
