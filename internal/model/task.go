// Package model defines the task and conversation data types and their invariants.
package model

import (
	"strings"
	"time"
)

// Status is the two-state task lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Interval is a recurrence cadence.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// ValidStatuses are the allowed task statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusCompleted: true,
}

// ValidIntervals are the allowed recurrence cadences.
var ValidIntervals = map[Interval]bool{
	IntervalDaily:   true,
	IntervalWeekly:  true,
	IntervalMonthly: true,
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID                 int64      `json:"id"`
	Owner              string     `json:"user_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Status             Status     `json:"status"`
	IsRecurring        bool       `json:"is_recurring"`
	RecurrenceInterval Interval   `json:"recurrence_interval,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// TaskFields is the input for creating a task.
type TaskFields struct {
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	IsRecurring        bool       `json:"is_recurring,omitempty"`
	RecurrenceInterval Interval   `json:"recurrence_interval,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
}

// NewTask builds a pending task from fields. The result is not validated.
func NewTask(owner string, f TaskFields) Task {
	return Task{
		Owner:              owner,
		Title:              strings.TrimSpace(f.Title),
		Description:        f.Description,
		Status:             StatusPending,
		IsRecurring:        f.IsRecurring,
		RecurrenceInterval: f.RecurrenceInterval,
		DueDate:            f.DueDate,
	}
}

// Validate checks the title and the recurrence invariant:
// RecurrenceInterval is set if and only if IsRecurring is true.
func Validate(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if t.Status != "" && !ValidStatuses[t.Status] {
		return Invalid("status", "must be pending or completed")
	}
	if t.RecurrenceInterval != "" && !ValidIntervals[t.RecurrenceInterval] {
		return Invalid("recurrence_interval", "must be daily, weekly or monthly")
	}
	if t.IsRecurring && t.RecurrenceInterval == "" {
		return Invalid("recurrence_interval", "required when is_recurring is true")
	}
	if !t.IsRecurring && t.RecurrenceInterval != "" {
		return Invalid("recurrence_interval", "must be empty unless is_recurring is true")
	}
	return nil
}

// ToggleStatus returns the opposite status.
func ToggleStatus(s Status) Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// ParseStatus parses a status filter or value.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !ValidStatuses[st] {
		return "", Invalid("status", "must be pending or completed")
	}
	return st, nil
}

// ParseInterval parses a recurrence cadence.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !ValidIntervals[iv] {
		return "", Invalid("recurrence_interval", "must be daily, weekly or monthly")
	}
	return iv, nil
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title              *string
	Description        *string
	Status             *Status
	IsRecurring        *bool
	RecurrenceInterval *Interval
	DueDate            *time.Time
	ClearDueDate       bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.IsRecurring == nil && p.RecurrenceInterval == nil &&
		p.DueDate == nil && !p.ClearDueDate
}

// Apply merges the patch into t and returns the result. Turning recurrence
// off without naming an interval also clears the interval. Timestamps are
// left to the store.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
		if !t.IsRecurring && p.RecurrenceInterval == nil {
			t.RecurrenceInterval = ""
		}
	}
	if p.RecurrenceInterval != nil {
		t.RecurrenceInterval = *p.RecurrenceInterval
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	return t
}

// StatusPatch is shorthand for a patch that only sets the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// Overdue reports whether a pending task's due date has passed.
func (t Task) Overdue(now time.Time) bool {
	return t.Status == StatusPending && t.DueDate != nil && t.DueDate.Before(now)
}

// ParseDue parses a due date given as RFC 3339 or a plain YYYY-MM-DD date.
// An empty string means no due date.
func ParseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, Invalid("due_date", "must be RFC 3339 or YYYY-MM-DD")
}
