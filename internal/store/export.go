package store

import (
	"context"

	"github.com/rcliao/todo-bridge/internal/model"
)

// ConversationExport is a thread with its transcript.
type ConversationExport struct {
	model.Conversation
	Turns []model.Turn `json:"turns"`
}

// Export is the archive format produced by ExportAll.
type Export struct {
	Owner         string               `json:"user_id"`
	Tasks         []model.Task         `json:"tasks"`
	Conversations []ConversationExport `json:"conversations"`
}

// ExportAll returns every task and conversation owned by owner.
func (s *SQLiteStore) ExportAll(ctx context.Context, owner string) (*Export, error) {
	tasks, err := s.List(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	convs, err := s.Conversations(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := &Export{Owner: owner, Tasks: tasks, Conversations: []ConversationExport{}}
	for _, c := range convs {
		turns, err := s.Turns(ctx, c.ID, owner)
		if err != nil {
			return nil, err
		}
		out.Conversations = append(out.Conversations, ConversationExport{Conversation: c, Turns: turns})
	}
	return out, nil
}
