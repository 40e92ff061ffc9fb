package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rcliao/todo-bridge/internal/conversation"
	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

type ChatRequest struct {
	UserID         string
	Message        string
	ConversationID string
}

type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Response       string   `json:"response"`
	ToolCalls      []string `json:"tool_calls"`
}

// Assistant runs one chat round trip: interpret the message, run the
// resulting command through the gateway, then store the message and the
// reply together. A round trip that fails stores nothing.
type Assistant struct {
	gateway *gateway.Gateway
	conv    *conversation.Service
	interp  Interpreter
	budget  int
	logger  *slog.Logger
}

// New returns an Assistant. budget caps the history, in characters, that
// the interpreter sees.
func New(gw *gateway.Gateway, conv *conversation.Service, interp Interpreter, budget int, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gateway: gw, conv: conv, interp: interp, budget: budget, logger: logger}
}

// Chat handles one message. Validation and not-found failures of the
// command become the reply; auth and transient failures are returned.
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, model.Invalid("message", "must not be empty")
	}
	if _, err := a.gateway.Authorize(ctx, req.UserID); err != nil {
		return nil, err
	}

	var history []model.Turn
	if req.ConversationID != "" {
		var err error
		history, err = a.conv.History(ctx, req.ConversationID, req.UserID)
		if err != nil {
			return nil, err
		}
	}

	intent, err := a.interp.Interpret(ctx, InterpretRequest{
		Owner:   req.UserID,
		Message: msg,
		History: conversation.Window(history, a.budget),
	})
	if err != nil {
		return nil, err
	}

	toolCalls := []string{}
	reply := intent.Reply
	if intent.Command != nil {
		toolCalls = append(toolCalls, intent.Command.Name())
		res, err := a.gateway.Execute(ctx, req.UserID, intent.Command)
		switch {
		case err == nil:
			reply = renderResult(intent.Command, res)
		case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
			reply = renderError(intent.Command, err)
		default:
			return nil, err
		}
	}
	if strings.TrimSpace(reply) == "" {
		reply = "Done."
	}

	convID, err := a.conv.AppendExchange(ctx, req.ConversationID, req.UserID, msg, reply)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("chat turn", "conversation_id", convID, "owner", req.UserID, "tool_calls", toolCalls)

	return &ChatResponse{ConversationID: convID, Response: reply, ToolCalls: toolCalls}, nil
}
