package commands

import (
	"fmt"
	"time"

	"github.com/reservoireye/internal/api/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewMeasurementCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "measurement",
		Short:   "Device measurement commands",
		Aliases: []string{"m"},
	}
	cmd.AddCommand(newMeasurementSubmitCommand())
	return cmd
}

func newMeasurementSubmitCommand() *cobra.Command {
	var (
		apiKey    string
		value     float64
		timestamp string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a reading as a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			var at time.Time
			if timestamp != "" {
				var err error
				if at, err = time.Parse(time.RFC3339, timestamp); err != nil {
					return fmt.Errorf("invalid timestamp: %w", err)
				}
			}

			c := client.New(viper.GetString(serverKey), "")
			m, err := c.SubmitMeasurement(apiKey, value, at)
			if err != nil {
				return fmt.Errorf("failed to submit measurement: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Measurement %.2f accepted at %s\n", m.Value, m.Time.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Device API key")
	cmd.Flags().Float64Var(&value, "value", 0, "Measured value")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Reading time in RFC3339 (default now)")
	cmd.MarkFlagRequired("api-key")
	cmd.MarkFlagRequired("value")
	return cmd
}
