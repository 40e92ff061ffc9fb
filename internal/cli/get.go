package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	a := openApp()
	defer a.Close()

	res := a.run(cmd, gateway.GetTask{ID: id})
	writeTask(cmd.OutOrStdout(), res.Task)
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		exitErr("id", model.Invalid("id", "must be a positive integer"))
	}
	return id
}
