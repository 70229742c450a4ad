package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"echelon-backend/internal/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var (
	taskFilter   string
	taskSort     string
	taskPriority string
	taskDue      string
	taskDesc     string
)

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().ListTasks(cmd.Context(), taskFilter, taskSort)
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), list)
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := newClient().CreateTask(cmd.Context(), models.TaskRequest{
			Title:       args[0],
			Description: taskDesc,
			Priority:    taskPriority,
			DueDate:     taskDue,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", task.ID, task.Title)
		return nil
	},
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		task, err := newClient().ToggleTask(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.ID, task.Status)
		return nil
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		if err := newClient().DeleteTask(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&taskFilter, "filter", "all", "all, pending or completed")
	tasksListCmd.Flags().StringVar(&taskSort, "sort", "due_date", "due_date, priority or created")

	tasksAddCmd.Flags().StringVar(&taskPriority, "priority", "medium", "low, medium or high")
	tasksAddCmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD)")
	tasksAddCmd.Flags().StringVar(&taskDesc, "description", "", "task description")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksToggleCmd, tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

func printTasks(out io.Writer, list *models.TaskList) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range list.Tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d pending, %d completed\n", list.PendingCount, list.CompletedCount)
}
