package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Host           string   `mapstructure:"host"`
		Port           int      `mapstructure:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`

	Database struct {
		Driver string `mapstructure:"driver"` // sqlite or postgres
		Path   string `mapstructure:"path"`   // sqlite file path
		DSN    string `mapstructure:"dsn"`    // postgres connection string
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret  string        `mapstructure:"jwt_secret"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
		AdminEmail string        `mapstructure:"admin_email"` // promoted to admin at startup
	} `mapstructure:"auth"`

	Alert struct {
		DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
		SkipBannedOwner bool          `mapstructure:"skip_banned_owner"`
	} `mapstructure:"alert"`

	Notify struct {
		Channel string `mapstructure:"channel"` // log, email or slack
		Email   struct {
			SMTPHost string `mapstructure:"smtp_host"`
			SMTPPort int    `mapstructure:"smtp_port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			From     string `mapstructure:"from"`
		} `mapstructure:"email"`
		Slack struct {
			Token   string `mapstructure:"token"`
			Channel string `mapstructure:"channel"`
		} `mapstructure:"slack"`
	} `mapstructure:"notify"`

	Monitor struct {
		Interval     time.Duration `mapstructure:"interval"`
		OfflineAfter time.Duration `mapstructure:"offline_after"`
	} `mapstructure:"monitor"`

	Bus struct {
		NATSURL string `mapstructure:"nats_url"`
		Subject string `mapstructure:"subject"`
	} `mapstructure:"bus"`

	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/reservoireye.db")
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("alert.dispatch_timeout", 10*time.Second)
	v.SetDefault("alert.skip_banned_owner", true)
	v.SetDefault("notify.channel", "log")
	v.SetDefault("notify.email.smtp_host", "")
	v.SetDefault("notify.email.smtp_port", 587)
	v.SetDefault("notify.email.username", "")
	v.SetDefault("notify.email.password", "")
	v.SetDefault("notify.email.from", "alerts@reservoireye.local")
	v.SetDefault("notify.slack.token", "")
	v.SetDefault("notify.slack.channel", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("monitor.interval", time.Minute)
	v.SetDefault("monitor.offline_after", 5*time.Minute)
	v.SetDefault("bus.nats_url", "")
	v.SetDefault("bus.subject", "alerts.recorded")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configuration from config.yaml in dir (or the working directory
// when dir is empty), a .env file and RESERVOIREYE_* environment variables.
// A default config file is written when none exists.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	// .env is optional
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("RESERVOIREYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := v.SafeWriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write default config: %v\n", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address of the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
