package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAdd,
	}

	cmd.Flags().String("desc", "", "Description")
	cmd.Flags().StringP("recurring", "r", "", "Repeat interval: daily, weekly or monthly")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	desc, _ := cmd.Flags().GetString("desc")
	recurring, _ := cmd.Flags().GetString("recurring")
	dueStr, _ := cmd.Flags().GetString("due")

	f := model.TaskFields{Title: strings.Join(args, " "), Description: desc}
	if recurring != "" {
		iv, err := model.ParseInterval(recurring)
		if err != nil {
			exitErr("add", err)
		}
		f.IsRecurring = true
		f.RecurrenceInterval = iv
	}
	due, err := model.ParseDue(dueStr)
	if err != nil {
		exitErr("add", err)
	}
	f.DueDate = due

	a := openApp()
	defer a.Close()

	res := a.run(cmd, gateway.CreateTask{Fields: f})
	writeTask(cmd.OutOrStdout(), res.Task)
}
