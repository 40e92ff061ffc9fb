package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

func conversationNotFound(id string) error {
	return fmt.Errorf("conversation %s: %w", id, model.ErrNotFound)
}

// checkConversation verifies the thread exists and belongs to owner.
func checkConversation(ctx context.Context, q queryer, id, owner string) error {
	var got string
	err := q.QueryRowContext(ctx, `SELECT owner FROM conversations WHERE id = ?`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && got != owner) {
		return conversationNotFound(id)
	}
	return err
}

// AppendExchange stores a user message and the assistant's reply as one
// unit. An empty conversationID starts a new thread in the same
// transaction, so a failed write leaves neither turns nor an empty thread.
func (s *SQLiteStore) AppendExchange(ctx context.Context, conversationID, owner, userContent, assistantContent string) (string, []model.Turn, error) {
	if err := requireOwner(owner); err != nil {
		return "", nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, classify(err)
	}
	defer tx.Rollback()

	if conversationID == "" {
		conversationID = s.newID()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (id, owner, created_at) VALUES (?, ?, ?)`,
			conversationID, owner, time.Now().UTC().Format(timeFormat))
		if err != nil {
			return "", nil, classify(fmt.Errorf("insert conversation: %w", err))
		}
	} else if err := checkConversation(ctx, tx, conversationID, owner); err != nil {
		return "", nil, classify(err)
	}

	turns := make([]model.Turn, 0, 2)
	for _, m := range []struct {
		role    model.Role
		content string
	}{
		{model.RoleUser, userContent},
		{model.RoleAssistant, assistantContent},
	} {
		t, err := s.insertTurn(ctx, tx, conversationID, m.role, m.content)
		if err != nil {
			return "", nil, err
		}
		turns = append(turns, *t)
	}
	if err := tx.Commit(); err != nil {
		return "", nil, classify(err)
	}
	return conversationID, turns, nil
}

// insertTurn appends a turn at the next sequence number inside tx.
func (s *SQLiteStore) insertTurn(ctx context.Context, tx *sql.Tx, conversationID string, role model.Role, content string) (*model.Turn, error) {
	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE conversation_id = ?`, conversationID).Scan(&seq); err != nil {
		return nil, classify(err)
	}

	t := &model.Turn{
		ID:             s.newID(),
		ConversationID: conversationID,
		Seq:            seq,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.ConversationID, t.Seq, string(t.Role), t.Content, t.CreatedAt.Format(timeFormat))
	if err != nil {
		return nil, classify(fmt.Errorf("insert turn: %w", err))
	}
	return t, nil
}

func (s *SQLiteStore) Turns(ctx context.Context, conversationID, owner string) ([]model.Turn, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	if err := checkConversation(ctx, s.db, conversationID, owner); err != nil {
		return nil, classify(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, seq, role, content, created_at
		 FROM turns WHERE conversation_id = ? ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	turns := []model.Turn{}
	for rows.Next() {
		var t model.Turn
		var role, createdAt string
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Seq, &role, &t.Content, &createdAt); err != nil {
			return nil, classify(err)
		}
		t.Role = model.Role(role)
		t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		turns = append(turns, t)
	}
	return turns, classify(rows.Err())
}

// Conversations lists the owner's threads, newest first.
func (s *SQLiteStore) Conversations(ctx context.Context, owner string) ([]model.Conversation, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, created_at FROM conversations WHERE owner = ? ORDER BY id DESC`, owner)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.Conversation{}
	for rows.Next() {
		var c model.Conversation
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Owner, &createdAt); err != nil {
			return nil, classify(err)
		}
		c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		out = append(out, c)
	}
	return out, classify(rows.Err())
}
