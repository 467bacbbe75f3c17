package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// EmailService sends transactional mail to panel users.
type EmailService interface {
	SendWelcome(ctx context.Context, to string) error
	SendSuspensionNotice(ctx context.Context, to string) error
}

// NoopEmailService is used when no mail API key is configured.
type NoopEmailService struct{}

func (NoopEmailService) SendWelcome(ctx context.Context, to string) error {
	log.Debug().Str("to", to).Msg("email disabled, skipping welcome mail")
	return nil
}

func (NoopEmailService) SendSuspensionNotice(ctx context.Context, to string) error {
	log.Debug().Str("to", to).Msg("email disabled, skipping suspension notice")
	return nil
}

type ResendEmailService struct {
	client *resend.Client
	from   string
}

func NewResendEmailService(apiKey, from string) *ResendEmailService {
	return &ResendEmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendEmailService) SendWelcome(ctx context.Context, to string) error {
	return s.send(ctx, to, "Welcome to the broadcast panel",
		"<p>Your account is ready.</p>"+
			"<p>Sign in to the panel and link your Telegram account to start scheduling blasts.</p>")
}

func (s *ResendEmailService) SendSuspensionNotice(ctx context.Context, to string) error {
	return s.send(ctx, to, "Your account has been suspended",
		"<p>Your panel account has been suspended by an administrator.</p>"+
			"<p>Scheduled blasts are paused and your Telegram link is deactivated.</p>")
}

func (s *ResendEmailService) send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Str("to", to).Str("emailId", sent.Id).Str("subject", subject).Msg("email sent")
	return nil
}
