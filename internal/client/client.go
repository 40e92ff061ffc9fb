// Package client talks to a remote todo-bridge server. Client implements
// store.TaskStore, so the CLI can put the same gateway in front of either
// a local database or a server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

type Client struct {
	baseURL  string
	resolver auth.Resolver
	http     *http.Client
}

// New returns a Client for baseURL. Every request carries the credential
// returned by resolver.
func New(baseURL string, resolver auth.Resolver, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		resolver: resolver,
		http:     &http.Client{Timeout: timeout},
	}
}

// errorBody mirrors the server's error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	cred, err := c.resolver.ResolveCredential(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	cred.Attach(req)

	resp, err := c.http.Do(req)
	if err != nil {
		var ne interface{ Timeout() bool }
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return fmt.Errorf("%s %s: %w", method, path, model.ErrTransient)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps an HTTP failure back onto the error taxonomy.
func decodeError(resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &eb)
	msg := eb.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		field := eb.Field
		if field == "" {
			field = "request"
		}
		return &model.ValidationError{Field: field, Reason: reasonOf(msg, field)}
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, model.ErrUnauthenticated)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("server returned %d %s: %w", resp.StatusCode, msg, model.ErrTransient)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}

// reasonOf strips the "invalid <field>: " prefix the server adds.
func reasonOf(msg, field string) string {
	return strings.TrimPrefix(msg, "invalid "+field+": ")
}

func (c *Client) List(ctx context.Context, owner string, status *model.Status) ([]model.Task, error) {
	path := "/tasks"
	if status != nil {
		path += "?status=" + url.QueryEscape(string(*status))
	}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Search(ctx context.Context, p store.SearchParams) ([]model.Task, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	if p.Status != nil {
		q.Set("status", string(*p.Status))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id int64, owner string) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Create(ctx context.Context, owner string, f model.TaskFields) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", f, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Update(ctx context.Context, id int64, owner string, p model.TaskPatch) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), patchBody(p), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Complete(ctx context.Context, id int64, owner string) (*model.Task, error) {
	return c.Update(ctx, id, owner, model.StatusPatch(model.StatusCompleted))
}

func (c *Client) Delete(ctx context.Context, id int64, owner string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// Chat sends one message to POST /chat.
func (c *Client) Chat(ctx context.Context, userID, message, conversationID string) (*assistant.ChatResponse, error) {
	body := map[string]string{"userId": userID, "message": message}
	if conversationID != "" {
		body["conversation_id"] = conversationID
	}
	var out assistant.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// patchBody renders a patch as the PUT body: only set keys, with null for
// cleared description and due date.
func patchBody(p model.TaskPatch) map[string]interface{} {
	body := map[string]interface{}{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		if *p.Description == "" {
			body["description"] = nil
		} else {
			body["description"] = *p.Description
		}
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	if p.IsRecurring != nil {
		body["is_recurring"] = *p.IsRecurring
	}
	if p.RecurrenceInterval != nil {
		body["recurrence_interval"] = *p.RecurrenceInterval
	}
	if p.ClearDueDate {
		body["due_date"] = nil
	} else if p.DueDate != nil {
		body["due_date"] = p.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return body
}
