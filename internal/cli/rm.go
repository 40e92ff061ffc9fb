package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	a := openApp()
	defer a.Close()

	a.run(cmd, gateway.DeleteTask{ID: id})
	if textMode() {
		fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%d}`+"\n", id)
}
