package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/conversation"
	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/logging"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

const secret = "api-test-secret"

type testServer struct {
	srv   *Server
	store *store.SQLiteStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logging.Discard()
	bridge := auth.NewBridge(auth.ContextSource{}, auth.NewVerifier(secret, ""), log)
	gw := gateway.New(s, bridge, log)
	asst := assistant.New(gw, conversation.NewService(s, log), assistant.NewRuleInterpreter(s), 4000, log)

	srv := New(Config{
		CORSOrigins:     []string{"http://localhost:3000"},
		SessionCookie:   "session_token",
		SessionIDCookie: "session_id",
	}, gw, asst, log)
	return &testServer{srv: srv, store: s}
}

func token(t *testing.T, user string) string {
	t.Helper()
	tok, _, err := auth.NewIssuer(secret, "", time.Hour).Issue(user)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	resp, err := ts.srv.App().Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/tasks", "alice", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[model.Task](t, body)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, "alice", created.Owner)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = ts.do(t, http.MethodPut, "/tasks/1", "alice", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, model.StatusCompleted, decode[model.Task](t, body).Status)

	resp, body = ts.do(t, http.MethodGet, "/tasks?status=pending", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.Task](t, body))

	resp, body = ts.do(t, http.MethodGet, "/tasks?status=completed", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]model.Task](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)

	resp, _ = ts.do(t, http.MethodGet, "/tasks/1", "alice", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.do(t, http.MethodDelete, "/tasks/1", "alice", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = ts.do(t, http.MethodPut, "/tasks/1", "alice", `{"title":"again"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, model.KindNotFound, decode[ErrorResponse](t, body).Error)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"blank title", `{"title":"  "}`, "title"},
		{"recurring without interval", `{"title":"X","is_recurring":true}`, "recurrence_interval"},
		{"interval without recurring", `{"title":"X","recurrence_interval":"daily"}`, "recurrence_interval"},
		{"unknown interval", `{"title":"X","is_recurring":true,"recurrence_interval":"hourly"}`, "recurrence_interval"},
		{"bad due date", `{"title":"X","due_date":"tomorrow"}`, "due_date"},
		{"not json", `title=X`, "body"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodPost, "/tasks", "alice", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			er := decode[ErrorResponse](t, body)
			assert.Equal(t, model.KindValidation, er.Error)
			assert.Equal(t, tc.field, er.Field)
		})
	}

	resp, body := ts.do(t, http.MethodPost, "/tasks", "alice",
		`{"title":"Water plants","is_recurring":true,"recurrence_interval":"weekly","due_date":"2026-12-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	task := decode[model.Task](t, body)
	assert.Equal(t, model.IntervalWeekly, task.RecurrenceInterval)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-12-01", task.DueDate.Format("2006-01-02"))
}

func TestUpdatePartialAndNulls(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	ts.store.Create(ctx, "alice", model.TaskFields{
		Title: "Gym", Description: "legs", IsRecurring: true, RecurrenceInterval: model.IntervalDaily, DueDate: &due,
	})

	resp, body := ts.do(t, http.MethodPut, "/tasks/1", "alice", `{"description":null,"due_date":null,"id":99,"user_id":"mallory"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	task := decode[model.Task](t, body)
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, "alice", task.Owner)
	assert.Equal(t, "Gym", task.Title)
	assert.Empty(t, task.Description)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, model.IntervalDaily, task.RecurrenceInterval)

	resp, body = ts.do(t, http.MethodPut, "/tasks/1", "alice", `{"is_recurring":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	task = decode[model.Task](t, body)
	assert.False(t, task.IsRecurring)
	assert.Empty(t, task.RecurrenceInterval)

	resp, _ = ts.do(t, http.MethodPut, "/tasks/1", "alice", `{"is_recurring":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPut, "/tasks/abc", "alice", `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, model.KindAuth, decode[ErrorResponse](t, body).Error)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err := ts.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a session id cookie alone is not a credential
	req = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-123"})
	resp, err = ts.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token(t, "alice")})
	resp, err = ts.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOwnershipIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Create(context.Background(), "alice", model.TaskFields{Title: "private"})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp, _ := ts.do(t, method, "/tasks/1", "bob", `{"title":"mine"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
	}

	// an empty or read-only body does not turn a missing task into a 400
	for _, path := range []string{"/tasks/1", "/tasks/42"} {
		resp, _ := ts.do(t, http.MethodPut, path, "bob", `{}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		resp, _ = ts.do(t, http.MethodPut, path, "bob", `{"id":7,"created_at":"2026-01-01T00:00:00Z"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp, _ := ts.do(t, http.MethodPut, "/tasks/1", "alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/tasks", "bob", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.Task](t, body))
}

func TestListSearch(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.store.Create(ctx, "alice", model.TaskFields{Title: "Buy milk"})
	ts.store.Create(ctx, "alice", model.TaskFields{Title: "Call mom"})

	resp, body := ts.do(t, http.MethodGet, "/tasks?q=milk", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]model.Task](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Title)

	resp, _ = ts.do(t, http.MethodGet, "/tasks?status=archived", "alice", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/chat", "alice", `{"userId":"alice","message":"add Buy milk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	first := decode[assistant.ChatResponse](t, body)
	require.NotEmpty(t, first.ConversationID)
	assert.Contains(t, first.Response, "#1")
	assert.Equal(t, []string{"add_task"}, first.ToolCalls)

	resp, body = ts.do(t, http.MethodPost, "/chat", "alice",
		fmt.Sprintf(`{"userId":"alice","message":"mark it done","conversation_id":%q}`, first.ConversationID))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	second := decode[assistant.ChatResponse](t, body)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	task, err := ts.store.Get(context.Background(), 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, task.Status)
}

func TestChatErrors(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name   string
		user   string
		body   string
		status int
	}{
		{"no credential", "", `{"userId":"alice","message":"hi"}`, http.StatusUnauthorized},
		{"user mismatch", "bob", `{"userId":"alice","message":"hi"}`, http.StatusUnauthorized},
		{"empty message", "alice", `{"userId":"alice","message":""}`, http.StatusBadRequest},
		{"unknown conversation", "alice", `{"userId":"alice","message":"hi","conversation_id":"01NOPE"}`, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodPost, "/chat", tc.user, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
		})
	}
}

type lockedStore struct {
	store.TaskStore
}

func (lockedStore) List(context.Context, string, *model.Status) ([]model.Task, error) {
	return nil, fmt.Errorf("database is locked: %w", model.ErrTransient)
}

func TestTransientIs503(t *testing.T) {
	log := logging.Discard()
	bridge := auth.NewBridge(auth.ContextSource{}, auth.NewVerifier(secret, ""), log)
	srv := New(Config{}, gateway.New(lockedStore{}, bridge, log), nil, log)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "alice"))
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}
