package model

import "time"

// Role identifies who authored a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is a chat thread owned by one user.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Owner     string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one entry of a conversation transcript.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Seq            int       `json:"seq"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskEvent is an audit record of a task mutation.
type TaskEvent struct {
	ID      string    `json:"id"`
	TaskID  int64     `json:"task_id"`
	Owner   string    `json:"user_id"`
	Action  string    `json:"action"`
	At      time.Time `json:"timestamp"`
	Details string    `json:"details,omitempty"`
}

// Task event actions.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionCompleted = "completed"
	ActionReopened  = "reopened"
	ActionDeleted   = "deleted"
)
