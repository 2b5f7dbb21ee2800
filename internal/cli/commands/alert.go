package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func NewAlertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alert",
		Short:   "Alert history commands",
		Aliases: []string{"alerts", "a"},
	}

	cmd.AddCommand(newAlertHistoryCommand())
	return cmd
}

func newAlertHistoryCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show triggered alerts, newest first",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			events, err := c.ListAlerts(limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tRULE\tSENT TO\tSTATUS\tTRIGGERED")
			for _, e := range events {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
					e.ID,
					e.RuleID,
					e.SentTo,
					e.Status,
					e.TriggeredAt.Format(time.RFC3339),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of alerts (server default 50)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of alerts to skip")
	return cmd
}
