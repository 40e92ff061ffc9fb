package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()
	s := a.requireLocal("stats")

	stats, err := s.Stats(cmd.Context(), a.whoami(cmd), time.Now())
	if err != nil {
		exitErr("stats", err)
	}

	if !textMode() {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "total:         %d\n", stats.Total)
	fmt.Fprintf(w, "pending:       %d\n", stats.Pending)
	fmt.Fprintf(w, "completed:     %d\n", stats.Completed)
	fmt.Fprintf(w, "recurring:     %d\n", stats.Recurring)
	fmt.Fprintf(w, "overdue:       %d\n", stats.Overdue)
	fmt.Fprintf(w, "conversations: %d\n", stats.Conversations)
	fmt.Fprintf(w, "db:            %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
}
