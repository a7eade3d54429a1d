package services

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
)

const maxContactMessageLen = 5000

// ContactMessage is a visitor's submission from the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate trims every field and checks the required ones.
func (m *ContactMessage) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)

	if m.Name == "" {
		return errs.NewMissingRequiredFieldError("name")
	}
	if m.Email == "" {
		return errs.NewMissingRequiredFieldError("email")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return errs.NewInvalidFieldError("email", "must be a valid email address")
	}
	if m.Message == "" {
		return errs.NewMissingRequiredFieldError("message")
	}
	if len([]rune(m.Message)) > maxContactMessageLen {
		return errs.NewInvalidFieldError("message", fmt.Sprintf("must be at most %d characters", maxContactMessageLen))
	}
	return nil
}

// EmailSender delivers one email.
type EmailSender interface {
	Enabled() bool
	SendEmail(ctx context.Context, email Email) error
}

// Notifier sends a short text alert.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// ContactService relays contact-form messages to the site owner.
type ContactService struct {
	mailer    EmailSender
	recipient string
	notifier  Notifier
	logger    zerolog.Logger
}

// NewContactService wires the relay. notifier may be nil.
func NewContactService(mailer EmailSender, recipient string, notifier Notifier) *ContactService {
	return &ContactService{
		mailer:    mailer,
		recipient: recipient,
		notifier:  notifier,
		logger:    log.With().Str("serviceName", "contactService").Logger(),
	}
}

// Send emails the message to the owner and, when configured, texts a short alert. SMS
// failures are logged and never fail the request.
func (s *ContactService) Send(ctx context.Context, msg ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if s.mailer == nil || !s.mailer.Enabled() || s.recipient == "" {
		return errs.NewUnavailableError("contact form is not available")
	}

	err := s.mailer.SendEmail(ctx, Email{
		To:      []string{s.recipient},
		Subject: "New portfolio message from " + msg.Name,
		HTML:    contactHTML(msg),
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message),
		ReplyTo: msg.Email,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to relay contact message")
		return errs.NewUpstreamError("could not deliver message", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, fmt.Sprintf("Portfolio message from %s <%s>: %s", msg.Name, msg.Email, msg.Message)); err != nil {
			s.logger.Warn().Err(err).Msg("sms notification failed")
		}
	}

	s.logger.Info().Str("from", msg.Email).Msg("contact message relayed")
	return nil
}

func contactHTML(msg ContactMessage) string {
	var b strings.Builder
	b.WriteString("<p><strong>From:</strong> ")
	b.WriteString(html.EscapeString(msg.Name))
	b.WriteString(" &lt;")
	b.WriteString(html.EscapeString(msg.Email))
	b.WriteString("&gt;</p><p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}
