package notify

import (
	"context"

	"github.com/reservoireye/internal/logger"
)

// LogDispatcher writes the notification to the log instead of delivering
// it. It is the default channel for development deployments.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher { return &LogDispatcher{} }

func (d *LogDispatcher) Type() string { return "log" }

func (d *LogDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.WithComponent("notify")
	log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("mock email")
	return nil
}
