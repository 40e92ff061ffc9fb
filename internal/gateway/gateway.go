// Package gateway is the single entry point through which forms, chat and
// tools invoke task operations.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

// Gateway authorizes each command against the resolved credential and
// dispatches it to the task store.
type Gateway struct {
	store    store.TaskStore
	resolver auth.Resolver
	logger   *slog.Logger
}

// New returns a Gateway. The resolver is consulted on every call.
func New(ts store.TaskStore, resolver auth.Resolver, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{store: ts, resolver: resolver, logger: logger}
}

// Authorize resolves the credential and checks it belongs to ownerID.
func (g *Gateway) Authorize(ctx context.Context, ownerID string) (*auth.Credential, error) {
	cred, err := g.resolver.ResolveCredential(ctx)
	if err != nil {
		return nil, err
	}
	if ownerID == "" || cred.UserID != ownerID {
		return nil, fmt.Errorf("credential does not belong to %q: %w", ownerID, model.ErrUnauthenticated)
	}
	return cred, nil
}

// Whoami returns the user id of the current credential.
func (g *Gateway) Whoami(ctx context.Context) (string, error) {
	cred, err := g.resolver.ResolveCredential(ctx)
	if err != nil {
		return "", err
	}
	return cred.UserID, nil
}

// Execute runs cmd on behalf of ownerID. Errors from the credential
// bridge and the store come back with their kind intact.
func (g *Gateway) Execute(ctx context.Context, ownerID string, cmd Command) (*Result, error) {
	if cmd == nil {
		return nil, model.Invalid("command", "required")
	}
	if _, err := g.Authorize(ctx, ownerID); err != nil {
		g.logger.Warn("command rejected", "command", cmd.Name(), "owner", ownerID, "error", err)
		return nil, err
	}

	res, err := g.dispatch(ctx, ownerID, cmd)
	if err != nil {
		g.logger.Info("command failed", "command", cmd.Name(), "owner", ownerID, "kind", model.Kind(err), "error", err)
		return nil, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	g.logger.Debug("command executed", "command", cmd.Name(), "owner", ownerID)
	res.Command = cmd.Name()
	return res, nil
}

func (g *Gateway) dispatch(ctx context.Context, owner string, cmd Command) (*Result, error) {
	switch c := cmd.(type) {
	case CreateTask:
		t, err := g.store.Create(ctx, owner, c.Fields)
		if err != nil {
			return nil, err
		}
		return &Result{Task: t}, nil

	case UpdateTask:
		if c.Patch.Empty() {
			// a missing or foreign task is reported before the empty body
			if _, err := g.store.Get(ctx, c.ID, owner); err != nil {
				return nil, err
			}
			return nil, model.Invalid("patch", "no fields to update")
		}
		t, err := g.store.Update(ctx, c.ID, owner, c.Patch)
		if err != nil {
			return nil, err
		}
		return &Result{Task: t}, nil

	case CompleteTask:
		t, err := g.store.Complete(ctx, c.ID, owner)
		if err != nil {
			return nil, err
		}
		return &Result{Task: t}, nil

	case ReopenTask:
		t, err := g.store.Update(ctx, c.ID, owner, model.StatusPatch(model.StatusPending))
		if err != nil {
			return nil, err
		}
		return &Result{Task: t}, nil

	case DeleteTask:
		if err := g.store.Delete(ctx, c.ID, owner); err != nil {
			return nil, err
		}
		return &Result{Deleted: true}, nil

	case ListTasks:
		tasks, err := g.store.List(ctx, owner, c.Status)
		if err != nil {
			return nil, err
		}
		return &Result{Tasks: tasks}, nil

	case GetTask:
		t, err := g.store.Get(ctx, c.ID, owner)
		if err != nil {
			return nil, err
		}
		return &Result{Task: t}, nil

	case SearchTasks:
		searcher, ok := g.store.(store.TaskSearcher)
		if !ok {
			return nil, model.Invalid("query", "search is not supported by this store")
		}
		tasks, err := searcher.Search(ctx, store.SearchParams{Owner: owner, Query: c.Query, Status: c.Status, Limit: c.Limit})
		if err != nil {
			return nil, err
		}
		return &Result{Tasks: tasks}, nil
	}
	return nil, fmt.Errorf("unknown command %T", cmd)
}
