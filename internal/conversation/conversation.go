// Package conversation manages persistent chat threads.
package conversation

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

type Service struct {
	store  store.ConversationStore
	logger *slog.Logger
}

func NewService(cs store.ConversationStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: cs, logger: logger}
}

// AppendExchange stores a user message and its reply together and returns
// the thread id. An empty conversationID starts a new thread.
func (s *Service) AppendExchange(ctx context.Context, conversationID, owner, userContent, reply string) (string, error) {
	if strings.TrimSpace(userContent) == "" {
		return "", model.Invalid("message", "must not be empty")
	}
	if strings.TrimSpace(reply) == "" {
		return "", model.Invalid("reply", "must not be empty")
	}
	id, _, err := s.store.AppendExchange(ctx, conversationID, owner, userContent, reply)
	if err != nil {
		return "", err
	}
	if conversationID == "" {
		s.logger.Debug("conversation started", "conversation_id", id, "owner", owner)
	}
	return id, nil
}

// History returns the thread's turns oldest first.
func (s *Service) History(ctx context.Context, conversationID, owner string) ([]model.Turn, error) {
	return s.store.Turns(ctx, conversationID, owner)
}

// Window returns the newest suffix of turns whose combined content length,
// in characters, fits within budget. Order is preserved. A budget <= 0
// means no limit.
func Window(turns []model.Turn, budget int) []model.Turn {
	if budget <= 0 {
		return turns
	}
	used := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(turns[i].Content)
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	return turns[start:]
}
