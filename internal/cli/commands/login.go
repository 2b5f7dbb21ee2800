package commands

import (
	"fmt"

	"github.com/reservoireye/internal/api/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(viper.GetString(serverKey), "")
			token, err := c.Login(email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			viper.Set(tokenKey, token)
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
