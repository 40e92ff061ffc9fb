package store

import (
	"context"
	"testing"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Create(ctx, "alice", model.TaskFields{Title: "Buy milk"})
	s.Create(ctx, "alice", model.TaskFields{Title: "Call mom", Description: "about the milk order"})
	s.Create(ctx, "alice", model.TaskFields{Title: "Write report"})
	s.Create(ctx, "bob", model.TaskFields{Title: "Buy MILK too"})
	s.Complete(ctx, 2, "alice")

	tests := []struct {
		name   string
		params SearchParams
		want   []int64
	}{
		{"title match", SearchParams{Owner: "alice", Query: "report"}, []int64{3}},
		{"case insensitive across fields", SearchParams{Owner: "alice", Query: "MILK"}, []int64{1, 2}},
		{"status filter", SearchParams{Owner: "alice", Query: "milk", Status: statusPtr(model.StatusPending)}, []int64{1}},
		{"empty query lists all", SearchParams{Owner: "alice"}, []int64{1, 2, 3}},
		{"limit", SearchParams{Owner: "alice", Limit: 1}, []int64{1}},
		{"other owner", SearchParams{Owner: "bob", Query: "milk"}, []int64{4}},
		{"no match", SearchParams{Owner: "alice", Query: "zebra"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.params)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d results, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("result %d: expected id %d, got %d", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Create(ctx, "alice", model.TaskFields{Title: "100% done"})
	s.Create(ctx, "alice", model.TaskFields{Title: "1000 steps"})
	s.Create(ctx, "alice", model.TaskFields{Title: "snake_case rename"})
	s.Create(ctx, "alice", model.TaskFields{Title: "snakeXcase"})

	got, _ := s.Search(ctx, SearchParams{Owner: "alice", Query: "100%"})
	if len(got) != 1 || got[0].Title != "100% done" {
		t.Errorf("percent should be literal, got %+v", got)
	}
	got, _ = s.Search(ctx, SearchParams{Owner: "alice", Query: "snake_case"})
	if len(got) != 1 || got[0].Title != "snake_case rename" {
		t.Errorf("underscore should be literal, got %+v", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	s.Create(ctx, "alice", model.TaskFields{Title: "late", DueDate: &past})
	s.Create(ctx, "alice", model.TaskFields{Title: "upcoming", DueDate: &future})
	s.Create(ctx, "alice", model.TaskFields{Title: "gym", IsRecurring: true, RecurrenceInterval: model.IntervalDaily})
	done, _ := s.Create(ctx, "alice", model.TaskFields{Title: "late but done", DueDate: &past})
	s.Complete(ctx, done.ID, "alice")
	s.Create(ctx, "bob", model.TaskFields{Title: "not mine"})
	s.AppendExchange(ctx, "", "alice", "hi", "hello")

	st, err := s.Stats(ctx, "alice", now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 4 || st.Pending != 3 || st.Completed != 1 {
		t.Errorf("unexpected counts: %+v", st)
	}
	if st.Recurring != 1 {
		t.Errorf("expected 1 recurring, got %d", st.Recurring)
	}
	if st.Overdue != 1 {
		t.Errorf("expected 1 overdue, got %d", st.Overdue)
	}
	if st.Conversations != 1 {
		t.Errorf("expected 1 conversation, got %d", st.Conversations)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Create(ctx, "alice", model.TaskFields{Title: "one"})
	s.Create(ctx, "alice", model.TaskFields{Title: "two"})
	s.Create(ctx, "bob", model.TaskFields{Title: "bob's"})
	s.AppendExchange(ctx, "", "alice", "hi", "hello")

	exp, err := s.ExportAll(ctx, "alice")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Owner != "alice" || len(exp.Tasks) != 2 {
		t.Errorf("unexpected export tasks: %+v", exp)
	}
	if len(exp.Conversations) != 1 || len(exp.Conversations[0].Turns) != 2 {
		t.Errorf("unexpected export conversations: %+v", exp.Conversations)
	}
}
