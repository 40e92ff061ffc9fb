package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

// recordEvent appends to the task event log inside the mutation's transaction.
func (s *SQLiteStore) recordEvent(ctx context.Context, tx *sql.Tx, taskID int64, owner, action string, details map[string]interface{}) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO task_events (id, task_id, owner, action, at, details) VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), taskID, owner, action, time.Now().UTC().Format(timeFormat), marshalDetails(details))
	return err
}

// Events returns the owner's task events, newest first.
func (s *SQLiteStore) Events(ctx context.Context, owner string, taskID int64, limit int) ([]model.TaskEvent, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	query := `SELECT id, task_id, owner, action, at, details FROM task_events WHERE owner = ?`
	args := []interface{}{owner}
	if taskID > 0 {
		query += ` AND task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	events := []model.TaskEvent{}
	for rows.Next() {
		var e model.TaskEvent
		var at string
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Owner, &e.Action, &at, &details); err != nil {
			return nil, classify(err)
		}
		e.At, _ = time.Parse(timeFormat, at)
		if details.Valid {
			e.Details = details.String
		}
		events = append(events, e)
	}
	return events, classify(rows.Err())
}
