package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

const helpText = `I can manage your tasks. Try:
  add buy milk            (also: "add water plants weekly", "add report due 2026-11-02")
  list / list pending / list completed
  complete #3             (also: "mark it done", "done buy milk")
  reopen #3
  rename #3 to call mom
  delete #3`

var (
	addRe      = regexp.MustCompile(`(?i)^(?:add|create|new)(?:\s+(?:a\s+)?task)?\s*:?\s+(.+)$`)
	listRe     = regexp.MustCompile(`(?i)^(?:list|show|what)\b(.*)$`)
	completeRe = regexp.MustCompile(`(?i)^(?:complete|finish|done|check off)\s+(.+)$`)
	markUndoRe = regexp.MustCompile(`(?i)^mark\s+(.+?)\s+(?:as\s+)?(?:pending|not done|undone|incomplete)$`)
	markDoneRe = regexp.MustCompile(`(?i)^mark\s+(.+?)(?:\s+(?:as\s+)?(?:done|complete|completed|finished))?$`)
	reopenRe   = regexp.MustCompile(`(?i)^(?:reopen|uncomplete|undo)\s+(.+)$`)
	deleteRe   = regexp.MustCompile(`(?i)^(?:delete|remove|drop)\s+(.+)$`)
	renameRe   = regexp.MustCompile(`(?i)^(?:rename|retitle)\s+(.+?)\s+to\s+(.+)$`)

	recurRe = regexp.MustCompile(`(?i)\s+(?:every\s+(day|week|month)|(daily|weekly|monthly))$`)
	dueRe   = regexp.MustCompile(`(?i)\s+due\s+(\d{4}-\d{2}-\d{2})$`)
	idRe    = regexp.MustCompile(`^#?(\d+)$`)
	mention = regexp.MustCompile(`#(\d+)`)
)

var pronouns = map[string]bool{
	"it": true, "that": true, "this": true, "that one": true, "this one": true, "the last one": true,
}

// RuleInterpreter recognizes a fixed set of task phrases. Tasks can be
// named by id ("#3"), by pronoun ("it", resolved to the latest #id in the
// history) or by title words (resolved with a search).
type RuleInterpreter struct {
	search store.TaskSearcher
}

func NewRuleInterpreter(search store.TaskSearcher) *RuleInterpreter {
	return &RuleInterpreter{search: search}
}

func (r *RuleInterpreter) Interpret(ctx context.Context, req InterpretRequest) (*Intent, error) {
	msg := strings.TrimSpace(req.Message)
	msg = strings.TrimRight(msg, ".!?")
	msg = strings.Join(strings.Fields(msg), " ")
	lower := strings.ToLower(msg)

	switch {
	case lower == "" || lower == "help" || lower == "hi" || lower == "hello":
		return &Intent{Reply: helpText}, nil

	case renameRe.MatchString(msg):
		m := renameRe.FindStringSubmatch(msg)
		return r.withTarget(ctx, req, m[1], nil, func(id int64) gateway.Command {
			title := strings.TrimSpace(m[2])
			return gateway.UpdateTask{ID: id, Patch: model.TaskPatch{Title: &title}}
		})

	case addRe.MatchString(msg):
		return &Intent{Command: gateway.CreateTask{Fields: parseFields(addRe.FindStringSubmatch(msg)[1])}}, nil

	case listRe.MatchString(msg):
		rest := strings.ToLower(listRe.FindStringSubmatch(msg)[1])
		var status *model.Status
		switch {
		case strings.Contains(rest, "pending") || strings.Contains(rest, "open") || strings.Contains(rest, "todo"):
			s := model.StatusPending
			status = &s
		case strings.Contains(rest, "completed") || strings.Contains(rest, "done") || strings.Contains(rest, "finished"):
			s := model.StatusCompleted
			status = &s
		}
		return &Intent{Command: gateway.ListTasks{Status: status}}, nil

	case markUndoRe.MatchString(msg):
		return r.reopen(ctx, req, markUndoRe.FindStringSubmatch(msg)[1])

	case reopenRe.MatchString(msg):
		return r.reopen(ctx, req, reopenRe.FindStringSubmatch(msg)[1])

	case completeRe.MatchString(msg):
		return r.complete(ctx, req, completeRe.FindStringSubmatch(msg)[1])

	case markDoneRe.MatchString(msg):
		return r.complete(ctx, req, markDoneRe.FindStringSubmatch(msg)[1])

	case deleteRe.MatchString(msg):
		return r.withTarget(ctx, req, deleteRe.FindStringSubmatch(msg)[1], nil, func(id int64) gateway.Command {
			return gateway.DeleteTask{ID: id}
		})
	}

	return &Intent{Reply: "Sorry, I didn't understand that. Say \"help\" to see what I can do."}, nil
}

func (r *RuleInterpreter) complete(ctx context.Context, req InterpretRequest, ref string) (*Intent, error) {
	pending := model.StatusPending
	return r.withTarget(ctx, req, ref, &pending, func(id int64) gateway.Command {
		return gateway.CompleteTask{ID: id}
	})
}

func (r *RuleInterpreter) reopen(ctx context.Context, req InterpretRequest, ref string) (*Intent, error) {
	completed := model.StatusCompleted
	return r.withTarget(ctx, req, ref, &completed, func(id int64) gateway.Command {
		return gateway.ReopenTask{ID: id}
	})
}

// withTarget resolves ref to a task id and builds the command, or returns a
// clarifying reply when ref is ambiguous.
func (r *RuleInterpreter) withTarget(ctx context.Context, req InterpretRequest, ref string, status *model.Status, build func(int64) gateway.Command) (*Intent, error) {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "task "), "the ")
	ref = strings.TrimSuffix(ref, " task")

	if m := idRe.FindStringSubmatch(ref); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return &Intent{Reply: fmt.Sprintf("%q is not a task number I can use.", ref)}, nil
		}
		return &Intent{Command: build(id)}, nil
	}

	if pronouns[strings.ToLower(ref)] {
		if id, ok := lastMentioned(req.History); ok {
			return &Intent{Command: build(id)}, nil
		}
		return &Intent{Reply: "Which task do you mean? Use its number, like #3."}, nil
	}

	if r.search == nil {
		return &Intent{Reply: "Which task do you mean? Use its number, like #3."}, nil
	}
	matches, err := r.search.Search(ctx, store.SearchParams{Owner: req.Owner, Query: ref, Status: status, Limit: 5})
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return &Intent{Reply: fmt.Sprintf("I couldn't find a task matching %q.", ref)}, nil
	case 1:
		return &Intent{Command: build(matches[0].ID)}, nil
	}

	names := make([]string, len(matches))
	for i, t := range matches {
		names[i] = fmt.Sprintf("#%d %s", t.ID, t.Title)
	}
	return &Intent{Reply: fmt.Sprintf("Several tasks match %q: %s. Which one?", ref, strings.Join(names, ", "))}, nil
}

// lastMentioned returns the most recent #id in the history.
func lastMentioned(history []model.Turn) (int64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		all := mention.FindAllStringSubmatch(history[i].Content, -1)
		if len(all) == 0 {
			continue
		}
		id, err := strconv.ParseInt(all[len(all)-1][1], 10, 64)
		if err == nil {
			return id, true
		}
	}
	return 0, false
}

// parseFields pulls trailing "due YYYY-MM-DD" and recurrence phrases off a title.
func parseFields(s string) model.TaskFields {
	var f model.TaskFields
	for {
		if m := dueRe.FindStringSubmatchIndex(s); m != nil {
			if d, err := time.Parse("2006-01-02", s[m[2]:m[3]]); err == nil {
				f.DueDate = &d
				s = s[:m[0]]
				continue
			}
		}
		if m := recurRe.FindStringSubmatch(s); m != nil {
			f.IsRecurring = true
			f.RecurrenceInterval = intervalFor(strings.ToLower(m[1] + m[2]))
			s = s[:len(s)-len(m[0])]
			continue
		}
		break
	}
	f.Title = strings.TrimSpace(s)
	return f
}

func intervalFor(word string) model.Interval {
	switch word {
	case "day", "daily":
		return model.IntervalDaily
	case "week", "weekly":
		return model.IntervalWeekly
	}
	return model.IntervalMonthly
}
