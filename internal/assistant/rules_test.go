package assistant

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

func TestRuleInterpreterCommands(t *testing.T) {
	ctx := context.Background()
	r := NewRuleInterpreter(nil)
	history := []model.Turn{
		{Role: model.RoleAssistant, Content: "Added #4 Buy milk."},
		{Role: model.RoleUser, Content: "thanks"},
	}

	pending := model.StatusPending
	completed := model.StatusCompleted
	renamed := "call mom"
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		msg  string
		want gateway.Command
	}{
		{"add Buy milk", gateway.CreateTask{Fields: model.TaskFields{Title: "Buy milk"}}},
		{"Add task: Buy milk.", gateway.CreateTask{Fields: model.TaskFields{Title: "Buy milk"}}},
		{"add water plants weekly", gateway.CreateTask{Fields: model.TaskFields{Title: "water plants", IsRecurring: true, RecurrenceInterval: model.IntervalWeekly}}},
		{"create gym every day", gateway.CreateTask{Fields: model.TaskFields{Title: "gym", IsRecurring: true, RecurrenceInterval: model.IntervalDaily}}},
		{"add report due 2026-11-02", gateway.CreateTask{Fields: model.TaskFields{Title: "report", DueDate: &due}}},
		{"list", gateway.ListTasks{}},
		{"show my pending tasks", gateway.ListTasks{Status: &pending}},
		{"list completed", gateway.ListTasks{Status: &completed}},
		{"complete #3", gateway.CompleteTask{ID: 3}},
		{"done 3", gateway.CompleteTask{ID: 3}},
		{"mark it done", gateway.CompleteTask{ID: 4}},
		{"mark #2 as done", gateway.CompleteTask{ID: 2}},
		{"mark #2 as not done", gateway.ReopenTask{ID: 2}},
		{"reopen that", gateway.ReopenTask{ID: 4}},
		{"delete task 7", gateway.DeleteTask{ID: 7}},
		{"rename #3 to call mom", gateway.UpdateTask{ID: 3, Patch: model.TaskPatch{Title: &renamed}}},
	}

	for _, tc := range testCases {
		t.Run(tc.msg, func(t *testing.T) {
			intent, err := r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: tc.msg, History: history})
			require.NoError(t, err)
			assert.Equal(t, tc.want, intent.Command)
		})
	}
}

func TestRuleInterpreterReplies(t *testing.T) {
	ctx := context.Background()
	r := NewRuleInterpreter(nil)

	for _, msg := range []string{"help", "complete it"} {
		intent, err := r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: msg})
		require.NoError(t, err)
		assert.Nil(t, intent.Command, msg)
		assert.NotEmpty(t, intent.Reply, msg)
	}

	intent, err := r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: "sing me a song"})
	require.NoError(t, err)
	assert.Nil(t, intent.Command)
	assert.Contains(t, intent.Reply, "didn't understand")
}

func TestRuleInterpreterSearch(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	s.Create(ctx, "alice", model.TaskFields{Title: "Buy milk"})
	s.Create(ctx, "alice", model.TaskFields{Title: "Buy bread"})
	s.Create(ctx, "alice", model.TaskFields{Title: "Call mom"})
	s.Create(ctx, "bob", model.TaskFields{Title: "Call mom"})

	r := NewRuleInterpreter(s)

	intent, err := r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: "complete call mom"})
	require.NoError(t, err)
	assert.Equal(t, gateway.CompleteTask{ID: 3}, intent.Command)

	intent, err = r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: "complete buy"})
	require.NoError(t, err)
	assert.Nil(t, intent.Command)
	assert.Contains(t, intent.Reply, "#1 Buy milk")
	assert.Contains(t, intent.Reply, "#2 Buy bread")

	intent, err = r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: "delete zebra"})
	require.NoError(t, err)
	assert.Nil(t, intent.Command)
	assert.Contains(t, intent.Reply, "couldn't find")

	// reopen only considers completed tasks
	intent, err = r.Interpret(ctx, InterpretRequest{Owner: "alice", Message: "reopen call mom"})
	require.NoError(t, err)
	assert.Nil(t, intent.Command)
}
