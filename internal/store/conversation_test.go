package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/todo-bridge/internal/model"
)

func TestNewConversationPerEmptyID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, _, err := s.AppendExchange(ctx, "", "alice", "hi", "hello")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	b, _, _ := s.AppendExchange(ctx, "", "alice", "hi again", "hello again")
	if a == "" || a == b {
		t.Errorf("expected distinct ids, got %q and %q", a, b)
	}

	convs, _ := s.Conversations(ctx, "alice")
	if len(convs) != 2 {
		t.Errorf("expected 2 conversations, got %d", len(convs))
	}
}

func TestTurnOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _, _ := s.AppendExchange(ctx, "", "alice", "add buy milk", "Added #1")
	s.AppendExchange(ctx, id, "alice", "mark it done", "Completed #1")

	want := []struct {
		role    model.Role
		content string
	}{
		{model.RoleUser, "add buy milk"},
		{model.RoleAssistant, "Added #1"},
		{model.RoleUser, "mark it done"},
		{model.RoleAssistant, "Completed #1"},
	}
	turns, _ := s.Turns(ctx, id, "alice")
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(turns))
	}
	for i, m := range want {
		if turns[i].Seq != i+1 || turns[i].Role != m.role || turns[i].Content != m.content {
			t.Errorf("turn %d: got %+v", i, turns[i])
		}
	}
}

func TestConversationOwnership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _, _ := s.AppendExchange(ctx, "", "alice", "secret", "noted")

	if _, err := s.Turns(ctx, id, "bob"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("turns: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Turns(ctx, "01UNKNOWN", "alice"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestAppendExchange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, turns, err := s.AppendExchange(ctx, "", "alice", "add milk", "Added #1 milk.")
	if err != nil {
		t.Fatalf("append exchange: %v", err)
	}
	if id == "" || len(turns) != 2 {
		t.Fatalf("expected new thread with 2 turns, got %q / %d", id, len(turns))
	}
	if turns[0].Role != model.RoleUser || turns[1].Role != model.RoleAssistant {
		t.Errorf("roles = %s, %s", turns[0].Role, turns[1].Role)
	}

	if _, _, err := s.AppendExchange(ctx, id, "alice", "list", "Your tasks:"); err != nil {
		t.Fatalf("continue: %v", err)
	}
	all, _ := s.Turns(ctx, id, "alice")
	if len(all) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(all))
	}
	for i, turn := range all {
		if turn.Seq != i+1 {
			t.Errorf("turn %d seq = %d", i, turn.Seq)
		}
	}
}

func TestAppendExchangeForeignThreadWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _, _ := s.AppendExchange(ctx, "", "alice", "hi", "hello")
	if _, _, err := s.AppendExchange(ctx, id, "bob", "hi", "hello"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := s.AppendExchange(ctx, "missing", "bob", "hi", "hello"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown thread, got %v", err)
	}
	convs, _ := s.Conversations(ctx, "bob")
	if len(convs) != 0 {
		t.Errorf("bob should have no threads, got %d", len(convs))
	}
	turns, _ := s.Turns(ctx, id, "alice")
	if len(turns) != 2 {
		t.Errorf("alice's thread changed: %d turns", len(turns))
	}
}
