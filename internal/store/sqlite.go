package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rcliao/todo-bridge/internal/model"
)

// Fixed-width UTC timestamps so TEXT comparison matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultTimeout bounds every store operation.
const DefaultTimeout = 5 * time.Second

// SQLiteStore implements TaskStore, TaskSearcher and ConversationStore using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	timeout time.Duration

	mu      sync.Mutex
	entropy io.Reader
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN so read-modify-write
	// transactions never race each other.
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(2000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		timeout: DefaultTimeout,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		owner               TEXT NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'pending',
		is_recurring        INTEGER NOT NULL DEFAULT 0,
		recurrence_interval TEXT,
		due_date            TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		completed_at        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner, status);

	CREATE TABLE IF NOT EXISTS task_events (
		id         TEXT PRIMARY KEY,
		task_id    INTEGER NOT NULL,
		owner      TEXT NOT NULL,
		action     TEXT NOT NULL,
		at         TEXT NOT NULL,
		details    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_task_events_owner ON task_events(owner, at DESC);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		owner      TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner);

	CREATE TABLE IF NOT EXISTS turns (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		UNIQUE (conversation_id, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// op bounds a store call so a stalled database surfaces as ErrTransient.
func (s *SQLiteStore) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps driver-level failures onto the error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrValidation) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", model.ErrTransient, err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
			return fmt.Errorf("%w: %v", model.ErrTransient, err)
		}
	}
	return err
}

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return model.Invalid("owner", "required")
	}
	return nil
}

const taskColumns = `id, owner, title, description, status, is_recurring, recurrence_interval,
	due_date, created_at, updated_at, completed_at`

func (s *SQLiteStore) List(ctx context.Context, owner string, status *model.Status) ([]model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	where := []string{"owner = ?"}
	args := []interface{}{owner}
	if status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*status))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	return s.queryTasks(ctx, query, args...)
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, classify(err)
		}
		tasks = append(tasks, t)
	}
	return tasks, classify(rows.Err())
}

func (s *SQLiteStore) Get(ctx context.Context, id int64, owner string) (*model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	t, err := getTask(ctx, s.db, id, owner)
	if err != nil {
		return nil, classify(err)
	}
	return t, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getTask(ctx context.Context, q queryer, id int64, owner string) (*model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner = ?`, id, owner)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) Create(ctx context.Context, owner string, f model.TaskFields) (*model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	t := model.NewTask(owner, f)
	if err := model.Validate(t); err != nil {
		return nil, err
	}

	ctx, cancel := s.op(ctx)
	defer cancel()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (owner, title, description, status, is_recurring, recurrence_interval, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.Title, t.Description, string(t.Status), t.IsRecurring,
		nullString(string(t.RecurrenceInterval)), nullTime(t.DueDate),
		now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return nil, classify(fmt.Errorf("insert task: %w", err))
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := s.recordEvent(ctx, tx, t.ID, owner, model.ActionCreated, map[string]interface{}{"title": t.Title}); err != nil {
		return nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, owner string, p model.TaskPatch) (*model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	cur, err := getTask(ctx, tx, id, owner)
	if err != nil {
		return nil, classify(err)
	}

	next := p.Apply(*cur)
	if err := model.Validate(next); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	action := model.ActionUpdated
	if next.Status != cur.Status {
		if next.Status == model.StatusCompleted {
			next.CompletedAt = &now
			action = model.ActionCompleted
		} else {
			next.CompletedAt = nil
			action = model.ActionReopened
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, is_recurring = ?, recurrence_interval = ?,
		        due_date = ?, updated_at = ?, completed_at = ?
		 WHERE id = ? AND owner = ?`,
		next.Title, next.Description, string(next.Status), next.IsRecurring,
		nullString(string(next.RecurrenceInterval)), nullTime(next.DueDate),
		now.Format(timeFormat), nullTime(next.CompletedAt), id, owner)
	if err != nil {
		return nil, classify(fmt.Errorf("update task: %w", err))
	}

	if err := s.recordEvent(ctx, tx, id, owner, action, patchDetails(p)); err != nil {
		return nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return &next, nil
}

func (s *SQLiteStore) Complete(ctx context.Context, id int64, owner string) (*model.Task, error) {
	return s.Update(ctx, id, owner, model.StatusPatch(model.StatusCompleted))
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64, owner string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	ctx, cancel := s.op(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return classify(fmt.Errorf("delete task: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}

	if err := s.recordEvent(ctx, tx, id, owner, model.ActionDeleted, nil); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var status string
	var interval, dueDate, completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.Owner, &t.Title, &t.Description, &status, &t.IsRecurring,
		&interval, &dueDate, &createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return t, err
	}

	t.Status = model.Status(status)
	if interval.Valid {
		t.RecurrenceInterval = model.Interval(interval.String)
	}
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	t.DueDate = parseNullTime(dueDate)
	t.CompletedAt = parseNullTime(completedAt)
	return t, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeFormat)
	return &v
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(timeFormat, v.String)
	if err != nil {
		return nil
	}
	return &t
}

// patchDetails lists the fields a patch touched for the event log.
func patchDetails(p model.TaskPatch) map[string]interface{} {
	d := map[string]interface{}{}
	if p.Title != nil {
		d["title"] = *p.Title
	}
	if p.Description != nil {
		d["description"] = *p.Description
	}
	if p.Status != nil {
		d["status"] = string(*p.Status)
	}
	if p.IsRecurring != nil {
		d["is_recurring"] = *p.IsRecurring
	}
	if p.RecurrenceInterval != nil {
		d["recurrence_interval"] = string(*p.RecurrenceInterval)
	}
	if p.DueDate != nil {
		d["due_date"] = p.DueDate.UTC().Format(time.RFC3339)
	}
	if p.ClearDueDate {
		d["due_date"] = nil
	}
	return d
}

func marshalDetails(d map[string]interface{}) *string {
	if len(d) == 0 {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	v := string(b)
	return &v
}
