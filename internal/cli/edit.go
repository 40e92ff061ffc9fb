package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's fields",
		Long:  "Change a task's fields. Only the flags you pass are applied. Use --recurring none or --due none to clear.",
		Args:  cobra.ExactArgs(1),
		Run:   runEdit,
	}

	addEditFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("desc", "", "New description (empty clears)")
	cmd.Flags().String("status", "", "pending or completed")
	cmd.Flags().StringP("recurring", "r", "", "daily, weekly, monthly or none")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339) or none")
}

func runEdit(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	p, err := editPatch(cmd)
	if err != nil {
		exitErr("edit", err)
	}

	a := openApp()
	defer a.Close()

	res := a.run(cmd, gateway.UpdateTask{ID: id, Patch: p})
	writeTask(cmd.OutOrStdout(), res.Task)
}

// editPatch builds a patch from the flags that were set.
func editPatch(cmd *cobra.Command) (model.TaskPatch, error) {
	var p model.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		p.Title = &v
	}
	if flags.Changed("desc") {
		v, _ := flags.GetString("desc")
		p.Description = &v
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		st, err := model.ParseStatus(v)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if flags.Changed("recurring") {
		v, _ := flags.GetString("recurring")
		on := v != "none" && v != ""
		p.IsRecurring = &on
		if on {
			iv, err := model.ParseInterval(v)
			if err != nil {
				return p, err
			}
			p.RecurrenceInterval = &iv
		}
	}
	if flags.Changed("due") {
		v, _ := flags.GetString("due")
		if v == "none" || v == "" {
			p.ClearDueDate = true
		} else {
			due, err := model.ParseDue(v)
			if err != nil {
				return p, err
			}
			p.DueDate = due
		}
	}
	return p, nil
}
