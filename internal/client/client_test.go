package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/todo-bridge/internal/api"
	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/conversation"
	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/logging"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

const secret = "client-test-secret"

type staticResolver struct {
	cred *auth.Credential
}

func (r staticResolver) ResolveCredential(context.Context) (*auth.Credential, error) {
	if r.cred == nil {
		return nil, model.ErrUnauthenticated
	}
	return r.cred, nil
}

// startServer runs the real API on a loopback port and returns its URL.
func startServer(t *testing.T) string {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logging.Discard()
	bridge := auth.NewBridge(auth.ContextSource{}, auth.NewVerifier(secret, ""), log)
	gw := gateway.New(s, bridge, log)
	asst := assistant.New(gw, conversation.NewService(s, log), assistant.NewRuleInterpreter(s), 4000, log)
	srv := api.New(api.Config{}, gw, asst, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.App().Listener(ln)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return "http://" + ln.Addr().String()
}

func clientFor(t *testing.T, baseURL, user string) *Client {
	t.Helper()
	tok, _, err := auth.NewIssuer(secret, "", time.Hour).Issue(user)
	require.NoError(t, err)
	return New(baseURL, staticResolver{cred: &auth.Credential{UserID: user, Token: tok}}, 5*time.Second)
}

func TestClientAgainstServer(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)
	c := clientFor(t, base, "alice")

	created, err := c.Create(ctx, "alice", model.TaskFields{Title: "Buy milk", Description: "2%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	done, err := c.Complete(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	pending := model.StatusPending
	list, err := c.List(ctx, "alice", &pending)
	require.NoError(t, err)
	assert.Empty(t, list)

	empty := ""
	updated, err := c.Update(ctx, 1, "alice", model.TaskPatch{Description: &empty, ClearDueDate: true})
	require.NoError(t, err)
	assert.Empty(t, updated.Description)

	found, err := c.Search(ctx, store.SearchParams{Owner: "alice", Query: "milk"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	reply, err := c.Chat(ctx, "alice", "list", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.ConversationID)
	assert.Contains(t, reply.Response, "Buy milk")

	require.NoError(t, c.Delete(ctx, 1, "alice"))
	_, err = c.Get(ctx, 1, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClientMapsErrors(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)

	_, err := clientFor(t, base, "alice").Create(ctx, "alice", model.TaskFields{Title: "X", IsRecurring: true})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "recurrence_interval", ve.Field)
	assert.Equal(t, "required when is_recurring is true", ve.Reason)

	forged := New(base, staticResolver{cred: &auth.Credential{UserID: "alice", Token: "forged"}}, time.Second)
	_, err = forged.List(ctx, "alice", nil)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = New(base, staticResolver{}, time.Second).List(ctx, "alice", nil)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestClientAttachesBearerAndMaps5xx(t *testing.T) {
	var gotAuth string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"transient","message":"store temporarily unavailable"}`))
	}))
	defer stub.Close()

	c := New(stub.URL, staticResolver{cred: &auth.Credential{UserID: "alice", Token: "abc"}}, time.Second)
	_, err := c.List(context.Background(), "alice", nil)
	assert.ErrorIs(t, err, model.ErrTransient)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestClientTimeoutIsTransient(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer stub.Close()

	c := New(stub.URL, staticResolver{cred: &auth.Credential{UserID: "alice", Token: "abc"}}, 20*time.Millisecond)
	_, err := c.List(context.Background(), "alice", nil)
	assert.ErrorIs(t, err, model.ErrTransient)
}

func TestPatchBody(t *testing.T) {
	title := "new"
	empty := ""
	off := false
	body := patchBody(model.TaskPatch{Title: &title, Description: &empty, IsRecurring: &off, ClearDueDate: true})

	assert.Equal(t, "new", body["title"])
	assert.Nil(t, body["description"])
	assert.Contains(t, body, "description")
	assert.Equal(t, false, body["is_recurring"])
	assert.Contains(t, body, "due_date")
	assert.NotContains(t, body, "status")
}
