package main

import (
	"fmt"
	"os"

	"github.com/reservoireye/internal/cli/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reservoireye",
	Short: "ReservoirEye CLI - reservoir monitoring and alerting",
	Long: `ReservoirEye CLI talks to a ReservoirEye server to manage alert rules,
browse triggered alerts and submit device measurements.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := commands.InitConfig(cfgFile); err != nil {
			return err
		}
		return viper.BindPFlag("server", cmd.Flags().Lookup("server"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "CLI config file (default $HOME/.reservoireye/cli.yaml)")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "API server URL")

	// Add commands
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewReservoirCommand())
	rootCmd.AddCommand(commands.NewRuleCommand())
	rootCmd.AddCommand(commands.NewAlertCommand())
	rootCmd.AddCommand(commands.NewMeasurementCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
