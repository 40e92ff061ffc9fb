// Package assistant turns chat messages into gateway commands and replies.
package assistant

import (
	"context"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

// InterpretRequest is one user message plus the recent thread it belongs to.
type InterpretRequest struct {
	Owner   string
	Message string
	History []model.Turn
}

// Intent is what the user asked for. A nil Command means reply only.
type Intent struct {
	Command gateway.Command
	Reply   string
}

// Interpreter maps a message to an Intent. Implementations may call out to
// a language model; RuleInterpreter is the built-in keyword matcher.
type Interpreter interface {
	Interpret(ctx context.Context, req InterpretRequest) (*Intent, error)
}
