package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
)

func init() {
	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runStatus(cmd, gateway.CompleteTask{ID: parseID(args[0])})
		},
	}
	reopen := &cobra.Command{
		Use:   "reopen <id>",
		Short: "Mark a task pending again",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runStatus(cmd, gateway.ReopenTask{ID: parseID(args[0])})
		},
	}

	RootCmd.AddCommand(done, reopen)
}

func runStatus(cmd *cobra.Command, c gateway.Command) {
	a := openApp()
	defer a.Close()

	res := a.run(cmd, c)
	writeTask(cmd.OutOrStdout(), res.Task)
}
