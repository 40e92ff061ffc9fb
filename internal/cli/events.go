package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the task change log, newest first",
		Run:   runEvents,
	}

	cmd.Flags().Int64("task", 0, "Only events for this task id")
	cmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(cmd)
}

func runEvents(cmd *cobra.Command, args []string) {
	taskID, _ := cmd.Flags().GetInt64("task")
	limit, _ := cmd.Flags().GetInt("limit")

	a := openApp()
	defer a.Close()
	s := a.requireLocal("events")

	events, err := s.Events(cmd.Context(), a.whoami(cmd), taskID, limit)
	if err != nil {
		exitErr("events", err)
	}

	if !textMode() {
		printJSON(cmd.OutOrStdout(), events)
		return
	}
	for _, e := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  #%-4d %-9s %s\n", e.At.Format("2006-01-02 15:04:05"), e.TaskID, e.Action, e.Details)
	}
}
