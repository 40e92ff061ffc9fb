package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GET /tasks[?status=pending|completed][&q=text]
func (s *Server) listTasks(c *fiber.Ctx) error {
	var status *model.Status
	if raw := c.Query("status"); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			return err
		}
		status = &st
	}

	var cmd gateway.Command = gateway.ListTasks{Status: status}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		cmd = gateway.SearchTasks{Query: q, Status: status, Limit: c.QueryInt("limit", 100)}
	}

	res, err := s.gateway.Execute(c.UserContext(), currentUser(c), cmd)
	if err != nil {
		return err
	}
	return c.JSON(res.Tasks)
}

// createRequest is the POST /tasks body.
type createRequest struct {
	Title              string          `json:"title"`
	Description        *string         `json:"description"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurrenceInterval *string         `json:"recurrence_interval"`
	DueDate            json.RawMessage `json:"due_date"`
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var req createRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return model.Invalid("body", "must be a JSON object")
	}

	f := model.TaskFields{Title: req.Title, IsRecurring: req.IsRecurring}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.RecurrenceInterval != nil && *req.RecurrenceInterval != "" {
		iv, err := model.ParseInterval(*req.RecurrenceInterval)
		if err != nil {
			return err
		}
		f.RecurrenceInterval = iv
	}
	due, err := parseDue(req.DueDate)
	if err != nil {
		return err
	}
	f.DueDate = due

	res, err := s.gateway.Execute(c.UserContext(), currentUser(c), gateway.CreateTask{Fields: f})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res.Task)
}

func (s *Server) getTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	res, err := s.gateway.Execute(c.UserContext(), currentUser(c), gateway.GetTask{ID: id})
	if err != nil {
		return err
	}
	return c.JSON(res.Task)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	patch, err := decodePatch(c.Body())
	if err != nil {
		return err
	}
	res, err := s.gateway.Execute(c.UserContext(), currentUser(c), gateway.UpdateTask{ID: id, Patch: patch})
	if err != nil {
		return err
	}
	return c.JSON(res.Task)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if _, err := s.gateway.Execute(c.UserContext(), currentUser(c), gateway.DeleteTask{ID: id}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	UserID         string `json:"userId"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return model.Invalid("body", "must be a JSON object")
	}
	if strings.TrimSpace(req.Message) == "" {
		return model.Invalid("message", "must not be empty")
	}
	if req.UserID != currentUser(c) {
		// the body names a different user than the credential
		return model.ErrUnauthenticated
	}

	resp, err := s.assistant.Chat(c.UserContext(), assistant.ChatRequest{
		UserID:         req.UserID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// parseDue accepts RFC 3339 timestamps or plain dates. Absent and null
// both mean no due date.
func parseDue(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, model.Invalid("due_date", "must be a string timestamp")
	}
	return model.ParseDue(s)
}

// decodePatch reads a partial task. Only keys present in the body are
// applied; null clears description and due_date. Read-only fields are
// ignored.
func decodePatch(body []byte) (model.TaskPatch, error) {
	var p model.TaskPatch
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return p, model.Invalid("body", "must be a JSON object")
	}

	for key, val := range raw {
		null := string(val) == "null"
		switch key {
		case "title":
			var s string
			if null || json.Unmarshal(val, &s) != nil {
				return p, model.Invalid("title", "must be a string")
			}
			p.Title = &s

		case "description":
			var s string
			if !null && json.Unmarshal(val, &s) != nil {
				return p, model.Invalid("description", "must be a string")
			}
			p.Description = &s

		case "status":
			var s string
			if null || json.Unmarshal(val, &s) != nil {
				return p, model.Invalid("status", "must be pending or completed")
			}
			st, err := model.ParseStatus(s)
			if err != nil {
				return p, err
			}
			p.Status = &st

		case "is_recurring":
			var b bool
			if null || json.Unmarshal(val, &b) != nil {
				return p, model.Invalid("is_recurring", "must be a boolean")
			}
			p.IsRecurring = &b

		case "recurrence_interval":
			var s string
			if !null && json.Unmarshal(val, &s) != nil {
				return p, model.Invalid("recurrence_interval", "must be a string")
			}
			iv := model.Interval("")
			if s != "" {
				parsed, err := model.ParseInterval(s)
				if err != nil {
					return p, err
				}
				iv = parsed
			}
			p.RecurrenceInterval = &iv

		case "due_date":
			due, err := parseDue(val)
			if err != nil {
				return p, err
			}
			if due == nil {
				p.ClearDueDate = true
			} else {
				p.DueDate = due
			}
		}
	}
	return p, nil
}
