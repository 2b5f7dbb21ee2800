package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewReservoirCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservoir",
		Short:   "Reservoir commands",
		Aliases: []string{"reservoirs", "r"},
	}
	cmd.AddCommand(newReservoirListCommand())
	return cmd
}

func newReservoirListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List your reservoirs",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			reservoirs, err := c.ListReservoirs()
			if err != nil {
				return fmt.Errorf("failed to list reservoirs: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCAPACITY\tLOCATION")
			for _, r := range reservoirs {
				location := "-"
				if r.Location != nil {
					location = *r.Location
				}
				fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\n", r.ID, r.Name, r.Capacity, location)
			}
			return w.Flush()
		},
	}
}
