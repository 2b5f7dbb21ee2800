package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// EmailDispatcher delivers notifications over SMTP.
type EmailDispatcher struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailDispatcher(host string, port int, username, password, from string) *EmailDispatcher {
	return &EmailDispatcher{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (e *EmailDispatcher) Type() string { return "email" }

func (e *EmailDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; run the dial in the background and
	// give up waiting when ctx is done.
	done := make(chan error, 1)
	go func() {
		done <- e.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
