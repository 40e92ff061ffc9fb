// Package store provides the task and conversation storage interfaces and their SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/todo-bridge/internal/model"
)

// TaskStore is the CRUD contract for tasks. Every operation is scoped to
// the owner: a task owned by someone else behaves exactly like a missing one.
type TaskStore interface {
	// List returns the owner's tasks ordered by id ascending, optionally
	// restricted to one status.
	List(ctx context.Context, owner string, status *model.Status) ([]model.Task, error)

	// Get returns one task.
	Get(ctx context.Context, id int64, owner string) (*model.Task, error)

	// Create validates and stores a new pending task.
	Create(ctx context.Context, owner string, f model.TaskFields) (*model.Task, error)

	// Update merges the patch into the stored task atomically.
	Update(ctx context.Context, id int64, owner string, p model.TaskPatch) (*model.Task, error)

	// Delete removes a task. Deleting a missing task fails with ErrNotFound.
	Delete(ctx context.Context, id int64, owner string) error

	// Complete is Update with status completed.
	Complete(ctx context.Context, id int64, owner string) (*model.Task, error)
}

// SearchParams holds parameters for searching tasks.
type SearchParams struct {
	Owner  string
	Query  string
	Status *model.Status
	Limit  int
}

// TaskSearcher finds tasks by text.
type TaskSearcher interface {
	Search(ctx context.Context, p SearchParams) ([]model.Task, error)
}

// ConversationStore persists chat threads.
type ConversationStore interface {
	// AppendExchange atomically adds a user turn and the assistant reply,
	// creating the thread when conversationID is empty. It returns the
	// thread id and the stored turns.
	AppendExchange(ctx context.Context, conversationID, owner, userContent, assistantContent string) (string, []model.Turn, error)

	// Turns returns the transcript in insertion order.
	Turns(ctx context.Context, conversationID, owner string) ([]model.Turn, error)
}
