package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

// TaskView is the tool-facing shape of a task. Times are RFC 3339 strings.
type TaskView struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	Status             string `json:"status"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurrenceInterval string `json:"recurrence_interval,omitempty"`
	DueDate            string `json:"due_date,omitempty"`
}

func viewOf(t *model.Task) TaskView {
	v := TaskView{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             string(t.Status),
		IsRecurring:        t.IsRecurring,
		RecurrenceInterval: string(t.RecurrenceInterval),
	}
	if t.DueDate != nil {
		v.DueDate = t.DueDate.Format(time.RFC3339)
	}
	return v
}

type AddTaskInput struct {
	Title              string `json:"title" jsonschema:"short task title"`
	Description        string `json:"description,omitempty" jsonschema:"optional details"`
	IsRecurring        bool   `json:"is_recurring,omitempty" jsonschema:"whether the task repeats"`
	RecurrenceInterval string `json:"recurrence_interval,omitempty" jsonschema:"daily, weekly or monthly; required when is_recurring is true"`
	DueDate            string `json:"due_date,omitempty" jsonschema:"RFC 3339 timestamp or YYYY-MM-DD"`
}

type ListTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"pending or completed"`
	Query  string `json:"query,omitempty" jsonschema:"substring to search in title and description"`
}

type TaskIDInput struct {
	TaskID int64 `json:"task_id" jsonschema:"id of the task"`
}

type UpdateTaskInput struct {
	TaskID             int64   `json:"task_id" jsonschema:"id of the task"`
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	Status             *string `json:"status,omitempty" jsonschema:"pending or completed"`
	IsRecurring        *bool   `json:"is_recurring,omitempty"`
	RecurrenceInterval *string `json:"recurrence_interval,omitempty" jsonschema:"daily, weekly or monthly; empty string clears"`
	DueDate            *string `json:"due_date,omitempty" jsonschema:"RFC 3339 timestamp or YYYY-MM-DD; empty string clears"`
}

type TaskOutput struct {
	Task TaskView `json:"task"`
}

type TaskListOutput struct {
	Tasks []TaskView `json:"tasks"`
}

type DeleteOutput struct {
	TaskID  int64 `json:"task_id"`
	Deleted bool  `json:"deleted"`
}

func (s *Server) addTask(ctx context.Context, _ *mcp.CallToolRequest, in AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	f := model.TaskFields{Title: in.Title, Description: in.Description, IsRecurring: in.IsRecurring}
	if in.RecurrenceInterval != "" {
		iv, err := model.ParseInterval(in.RecurrenceInterval)
		if err != nil {
			return nil, TaskOutput{}, err
		}
		f.RecurrenceInterval = iv
	}
	due, err := model.ParseDue(in.DueDate)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	f.DueDate = due

	res, err := s.execute(ctx, gateway.CreateTask{Fields: f})
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, TaskOutput{Task: viewOf(res.Task)}, nil
}

func (s *Server) listTasks(ctx context.Context, _ *mcp.CallToolRequest, in ListTasksInput) (*mcp.CallToolResult, TaskListOutput, error) {
	var status *model.Status
	if in.Status != "" {
		st, err := model.ParseStatus(in.Status)
		if err != nil {
			return nil, TaskListOutput{}, err
		}
		status = &st
	}

	var cmd gateway.Command = gateway.ListTasks{Status: status}
	if in.Query != "" {
		cmd = gateway.SearchTasks{Query: in.Query, Status: status}
	}
	res, err := s.execute(ctx, cmd)
	if err != nil {
		return nil, TaskListOutput{}, err
	}

	out := TaskListOutput{Tasks: make([]TaskView, 0, len(res.Tasks))}
	for i := range res.Tasks {
		out.Tasks = append(out.Tasks, viewOf(&res.Tasks[i]))
	}
	return nil, out, nil
}

func (s *Server) completeTask(ctx context.Context, _ *mcp.CallToolRequest, in TaskIDInput) (*mcp.CallToolResult, TaskOutput, error) {
	res, err := s.execute(ctx, gateway.CompleteTask{ID: in.TaskID})
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, TaskOutput{Task: viewOf(res.Task)}, nil
}

func (s *Server) deleteTask(ctx context.Context, _ *mcp.CallToolRequest, in TaskIDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if _, err := s.execute(ctx, gateway.DeleteTask{ID: in.TaskID}); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{TaskID: in.TaskID, Deleted: true}, nil
}

func (s *Server) updateTask(ctx context.Context, _ *mcp.CallToolRequest, in UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	p, err := in.patch()
	if err != nil {
		return nil, TaskOutput{}, err
	}
	res, err := s.execute(ctx, gateway.UpdateTask{ID: in.TaskID, Patch: p})
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, TaskOutput{Task: viewOf(res.Task)}, nil
}

func (in UpdateTaskInput) patch() (model.TaskPatch, error) {
	p := model.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		IsRecurring: in.IsRecurring,
	}
	if in.Status != nil {
		st, err := model.ParseStatus(*in.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if in.RecurrenceInterval != nil {
		iv := model.Interval("")
		if *in.RecurrenceInterval != "" {
			parsed, err := model.ParseInterval(*in.RecurrenceInterval)
			if err != nil {
				return p, err
			}
			iv = parsed
		}
		p.RecurrenceInterval = &iv
	}
	if in.DueDate != nil {
		due, err := model.ParseDue(*in.DueDate)
		if err != nil {
			return p, err
		}
		if due == nil {
			p.ClearDueDate = true
		} else {
			p.DueDate = due
		}
	}
	return p, nil
}
