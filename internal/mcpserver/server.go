// Package mcpserver exposes task operations as MCP tools over stdio.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

type Server struct {
	gateway *gateway.Gateway
	server  *mcp.Server
	logger  *slog.Logger
}

// New registers the task tools. Every tool runs as the user of the
// gateway's current credential.
func New(gw *gateway.Gateway, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		gateway: gw,
		server:  mcp.NewServer(&mcp.Implementation{Name: "todo-bridge", Version: version}, nil),
		logger:  logger,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_task",
		Description: "Create a new pending task.",
	}, s.addTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by status (pending or completed) or a search query.",
	}, s.listTasks)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed.",
	}, s.completeTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task.",
	}, s.deleteTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_task",
		Description: "Change a task's title, description, status, recurrence or due date. Omitted fields are left unchanged.",
	}, s.updateTask)
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// execute runs cmd as the current credential's user.
func (s *Server) execute(ctx context.Context, cmd gateway.Command) (*gateway.Result, error) {
	owner, err := s.gateway.Whoami(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.Execute(ctx, owner, cmd)
	if err != nil {
		s.logger.Debug("tool failed", "tool", cmd.Name(), "kind", model.Kind(err), "error", err)
		return nil, err
	}
	return res, nil
}
