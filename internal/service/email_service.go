package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/mail"
	"github.com/yasinhessnawi1/authgate/internal/metrics"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

const resetEmailHTML = `<p>Click <a href="%s">here</a> to reset your password. This link is valid for %s.</p>`

const resetEmailText = "Use the following link to reset your password: %s\nThis link is valid for %s."

// PasswordResetMailer delivers password reset links
type PasswordResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, token string, validFor time.Duration) error
}

// EmailService handles sending emails.
type EmailService struct {
	transport     mail.Transport
	from          string
	frontendURL   string
	verifyTimeout time.Duration
	sendTimeout   time.Duration
	metrics       *metrics.Metrics
}

// NewEmailService creates a new EmailService on top of a mail transport
func NewEmailService(transport mail.Transport, mailCfg *config.MailSettings, frontendURL string, m *metrics.Metrics) *EmailService {
	verifyTimeout := mailCfg.VerifyTimeout
	if verifyTimeout <= 0 {
		verifyTimeout = constants.DefaultMailVerifyTimeout
	}
	sendTimeout := mailCfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = constants.DefaultMailSendTimeout
	}
	return &EmailService{
		transport:     transport,
		from:          mailCfg.From,
		frontendURL:   frontendURL,
		verifyTimeout: verifyTimeout,
		sendTimeout:   sendTimeout,
		metrics:       m,
	}
}

// ResetLink builds the frontend link carrying the reset token
func (s *EmailService) ResetLink(token string) string {
	return fmt.Sprintf("%s%s?%s=%s", s.frontendURL, constants.ResetLinkPath, constants.ResetTokenQueryParam, url.QueryEscape(token))
}

// Verify checks the mail transport under the verify timeout
func (s *EmailService) Verify(ctx context.Context) error {
	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()
	return s.transport.Verify(verifyCtx)
}

// SendPasswordResetEmail sends a password reset email to the specified user.
// The transport is verified first and nothing is sent when that check fails.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, token string, validFor time.Duration) error {
	if err := s.Verify(ctx); err != nil {
		log.Error().
			Err(err).
			Str("transport", s.transport.Name()).
			Msg("Mail transport check failed")
		s.metrics.RecordMailDelivery(s.transport.Name(), false)
		return utils.NewDependencyError(constants.MsgMailUnavailable, err)
	}

	link := s.ResetLink(token)
	msg := &mail.Message{
		From:    s.from,
		To:      toEmail,
		Subject: constants.ResetPasswordSubject,
		HTML:    fmt.Sprintf(resetEmailHTML, link, humanizeDuration(validFor)),
		Text:    fmt.Sprintf(resetEmailText, link, humanizeDuration(validFor)),
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.transport.Send(sendCtx, msg); err != nil {
		log.Error().
			Err(err).
			Str("transport", s.transport.Name()).
			Msg("Failed to send password reset email")
		s.metrics.RecordMailDelivery(s.transport.Name(), false)
		return utils.NewDependencyError(constants.MsgMailSendFailed, err)
	}

	s.metrics.RecordMailDelivery(s.transport.Name(), true)
	log.Info().
		Str("transport", s.transport.Name()).
		Msg("Password reset email sent")
	return nil
}

// humanizeDuration renders whole minutes or hours, for example "15 minutes"
func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
