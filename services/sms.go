package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rpupo63/portfolio-site-backend/config"
)

// messageCreator is the slice of the Twilio API the notifier uses.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier texts the site owner through Twilio.
type SMSNotifier struct {
	api  messageCreator
	from string
	to   string
}

// NewSMSNotifier returns nil when SMS is not configured.
func NewSMSNotifier(cfg config.SMSConfig) *SMSNotifier {
	if !cfg.Enabled() {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &SMSNotifier{api: client.Api, from: cfg.From, to: cfg.To}
}

// Notify sends body to the configured number.
func (n *SMSNotifier) Notify(ctx context.Context, body string) error {
	if n == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(truncate(body, 320))

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Msg("sms sent")
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
