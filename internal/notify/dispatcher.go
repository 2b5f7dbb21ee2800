// Package notify delivers alert notifications to reservoir owners over a
// single configured channel.
package notify

import (
	"context"
	"fmt"
)

// Dispatcher is the outbound notification capability used by the alert
// pipeline. Send returns an error when delivery fails.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error

	// Type returns the channel type name.
	Type() string
}

type Config struct {
	Channel string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	SlackToken   string
	SlackChannel string
}

// New builds the dispatcher selected by cfg.Channel.
func New(cfg Config) (Dispatcher, error) {
	switch cfg.Channel {
	case "", "log":
		return NewLogDispatcher(), nil
	case "email":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email channel requires an SMTP host")
		}
		return NewEmailDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom), nil
	case "slack":
		if cfg.SlackToken == "" || cfg.SlackChannel == "" {
			return nil, fmt.Errorf("slack channel requires a token and a channel")
		}
		return NewSlackDispatcher(cfg.SlackToken, cfg.SlackChannel), nil
	default:
		return nil, fmt.Errorf("unknown notification channel %q", cfg.Channel)
	}
}
