package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools over MCP (stdio)",
		Long:  "Expose add_task, list_tasks, complete_task, delete_task and update_task as MCP tools on stdin/stdout for agent hosts.",
		Run:   runMCP,
	}

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	// stdout carries the protocol
	if err := mcpserver.New(a.gateway, Version, a.logger).Run(cmd.Context()); err != nil {
		exitErr("mcp", err)
	}
}
