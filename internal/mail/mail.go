// Package mail provides the transports used to deliver outgoing email.
// Transports only deliver; composing messages is the email service's job.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// Transport errors
var (
	ErrNotConfigured    = errors.New("mail transport is not configured")
	ErrUnknownTransport = errors.New("unknown mail transport")
)

// Message is a single outgoing email
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers messages to a mail provider
type Transport interface {
	// Name identifies the transport in logs and health output
	Name() string

	// Verify checks that the provider is reachable and accepts our credentials
	Verify(ctx context.Context) error

	// Send delivers a message
	Send(ctx context.Context, msg *Message) error
}

// NewTransport builds the transport selected by the mail settings.
// SendGrid is used when configured explicitly or when only an API key is set.
func NewTransport(cfg *config.MailSettings) (Transport, error) {
	switch cfg.TransportName() {
	case constants.MailTransportSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("%w: SENDGRID_API_KEY is empty", ErrNotConfigured)
		}
		return NewSendGridTransport(cfg.SendGridAPIKey), nil
	case constants.MailTransportSMTP:
		if cfg.Host == "" {
			return nil, fmt.Errorf("%w: EMAIL_HOST is empty", ErrNotConfigured)
		}
		return NewSMTPTransport(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// Unconfigured returns a transport that fails every check and send with reason.
// The server falls back to it when no provider is configured, so password
// reset requests fail with a dependency error while the rest of the API works.
func Unconfigured(reason error) Transport {
	if reason == nil {
		reason = ErrNotConfigured
	}
	return unconfiguredTransport{reason: reason}
}

type unconfiguredTransport struct {
	reason error
}

func (t unconfiguredTransport) Name() string { return constants.MailTransportNone }

func (t unconfiguredTransport) Verify(ctx context.Context) error { return t.reason }

func (t unconfiguredTransport) Send(ctx context.Context, msg *Message) error { return t.reason }
