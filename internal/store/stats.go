package store

import (
	"context"
	"os"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

// Stats holds per-owner task counts.
type Stats struct {
	DBPath        string `json:"db_path"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	Total         int    `json:"total"`
	Pending       int    `json:"pending"`
	Completed     int    `json:"completed"`
	Recurring     int    `json:"recurring"`
	Overdue       int    `json:"overdue"`
	Conversations int    `json:"conversations"`
}

// Stats returns task statistics for owner as of now.
func (s *SQLiteStore) Stats(ctx context.Context, owner string, now time.Time) (*Stats, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	st := &Stats{DBPath: s.path}
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_recurring = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? AND due_date IS NOT NULL AND due_date < ? THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE owner = ?`,
		string(model.StatusPending), string(model.StatusCompleted), string(model.StatusPending),
		now.UTC().Format(timeFormat), owner,
	).Scan(&st.Total, &st.Pending, &st.Completed, &st.Recurring, &st.Overdue)
	if err != nil {
		return nil, classify(err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE owner = ?`, owner).Scan(&st.Conversations); err != nil {
		return nil, classify(err)
	}
	return st, nil
}
