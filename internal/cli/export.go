package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your tasks and conversations as JSON",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()
	s := a.requireLocal("export")

	exp, err := s.ExportAll(cmd.Context(), a.whoami(cmd))
	if err != nil {
		exitErr("export", err)
	}
	printJSON(cmd.OutOrStdout(), exp)
}
