package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"echelon-backend/internal/models"
)

var analyticsRange string

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show activity for a time range",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newClient().Analytics(cmd.Context(), analyticsRange)
		if err != nil {
			return err
		}
		printAnalytics(cmd.OutOrStdout(), a)
		return nil
	},
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsRange, "range", "7d", "24h, 7d, 30d or 90d")
	rootCmd.AddCommand(analyticsCmd)
}

func printAnalytics(out io.Writer, a *models.Analytics) {
	fmt.Fprintf(out, "Activity over the last %s\n", a.Range)
	fmt.Fprintf(out, "  Tasks created:         %d\n", a.TasksCreated)
	fmt.Fprintf(out, "  Tasks completed:       %d\n", a.TasksCompleted)
	fmt.Fprintf(out, "  Tasks pending:         %d\n", a.TasksPending)
	fmt.Fprintf(out, "  Completion rate:       %.0f%%\n", a.CompletionRate*100)
	fmt.Fprintf(out, "  Conversations started: %d\n", a.ConversationsStarted)
	fmt.Fprintf(out, "  Messages sent:         %d\n", a.MessagesSent)
}
