package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

// SlackDispatcher posts notifications to a Slack channel. The recipient
// address is shown in the message since Slack has no per-user mailbox here.
type SlackDispatcher struct {
	client  *slack.Client
	channel string
}

func NewSlackDispatcher(token, channel string, opts ...slack.Option) *SlackDispatcher {
	return &SlackDispatcher{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

func (s *SlackDispatcher) Type() string { return "slack" }

func (s *SlackDispatcher) Send(ctx context.Context, to, subject, body string) error {
	attachment := slack.Attachment{
		Color: "#ffcc00",
		Title: subject,
		Text:  body,
		Fields: []slack.AttachmentField{
			{
				Title: "Recipient",
				Value: to,
				Short: true,
			},
		},
		Footer: "ReservoirEye Alert",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := s.client.PostMessageContext(ctx,
		s.channel,
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	return nil
}
