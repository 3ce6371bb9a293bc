package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailMessage struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailService sends through Resend. In development it only logs.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
	}
}

func (s *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
		return nil
	}

	if s.client == nil {
		return errors.New("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return err
	}

	slog.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
