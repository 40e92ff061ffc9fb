package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run:   runList,
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status: pending or completed")
	cmd.Flags().StringP("query", "q", "", "Only tasks whose title or description contains this text")
	cmd.Flags().IntP("limit", "l", 100, "Max results when searching")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	statusStr, _ := cmd.Flags().GetString("status")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	var status *model.Status
	if statusStr != "" {
		st, err := model.ParseStatus(statusStr)
		if err != nil {
			exitErr("list", err)
		}
		status = &st
	}

	a := openApp()
	defer a.Close()

	var c gateway.Command = gateway.ListTasks{Status: status}
	if query != "" {
		c = gateway.SearchTasks{Query: query, Status: status, Limit: limit}
	}
	res := a.run(cmd, c)
	writeTasks(cmd.OutOrStdout(), res.Tasks)
}
