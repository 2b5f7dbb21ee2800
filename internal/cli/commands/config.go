package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/reservoireye/internal/api/client"
	"github.com/spf13/viper"
)

const (
	serverKey = "server"
	tokenKey  = "token"
)

// InitConfig loads the CLI settings file, creating it on first use. The file
// holds the server URL and the token saved by login.
func InitConfig(path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		path = filepath.Join(home, ".reservoireye", "cli.yaml")
	}

	viper.SetConfigFile(path)
	viper.SetEnvPrefix("RESERVOIREYE")
	viper.AutomaticEnv()
	viper.SetDefault(serverKey, "http://localhost:8080")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return nil
}

// saveConfig persists the current settings, creating the file when needed.
func saveConfig() error {
	path := viper.ConfigFileUsed()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return os.Chmod(path, 0600)
}

func newClient() (*client.Client, error) {
	token := viper.GetString(tokenKey)
	if token == "" {
		return nil, fmt.Errorf("not logged in, run 'reservoireye login' first")
	}
	return client.New(viper.GetString(serverKey), token), nil
}

func parseID(arg, what string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, arg)
	}
	return uint(id), nil
}
