package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

// Email is one outbound message to a single recipient.
type Email struct {
	To      Recipient
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// SendgridSender sends through the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgridSender(cfg config.SendgridConfig) (*SendgridSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	return &SendgridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Email) error {
	to := mail.NewEmail(msg.To.Name, msg.To.Email)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender only logs. Used when no SendGrid key is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Email) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"to":      msg.To.Email,
		"subject": msg.Subject,
	})
	s.logg.Info(logCtx, "notifications.email_skipped")
	return nil
}

// NewEmailSender picks SendGrid when configured and the log sender otherwise.
func NewEmailSender(cfg config.SendgridConfig, logg *logger.Logger) EmailSender {
	if sender, err := NewSendgridSender(cfg); err == nil {
		return sender
	}
	return NewLogSender(logg)
}
