package store

import (
	"context"
	"strings"

	"github.com/rcliao/todo-bridge/internal/model"
)

// Search finds the owner's tasks whose title or description contains the
// query substring (case-insensitive for ASCII), ordered by id ascending.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Task, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	where := []string{"owner = ?"}
	args := []interface{}{p.Owner}
	if p.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*p.Status))
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	args = append(args, limit)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC LIMIT ?`
	return s.queryTasks(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
