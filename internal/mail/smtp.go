package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// SMTPTransport delivers mail through an SMTP relay.
// A client is built per operation so concurrent requests never share a connection.
type SMTPTransport struct {
	host     string
	port     int
	secure   bool
	username string
	password string
	timeout  time.Duration
}

// NewSMTPTransport creates an SMTP transport from the mail settings
func NewSMTPTransport(cfg *config.MailSettings) *SMTPTransport {
	port := cfg.Port
	if port == 0 {
		port = constants.DefaultSMTPPort
		if cfg.Secure {
			port = constants.DefaultSMTPSecurePort
		}
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = constants.DefaultMailSendTimeout
	}
	return &SMTPTransport{
		host:     cfg.Host,
		port:     port,
		secure:   cfg.Secure,
		username: cfg.User,
		password: cfg.Password,
		timeout:  timeout,
	}
}

// Name implements Transport
func (t *SMTPTransport) Name() string {
	return constants.MailTransportSMTP
}

func (t *SMTPTransport) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(t.port),
		gomail.WithTimeout(t.timeout),
	}
	if t.secure {
		// Implicit TLS, usually port 465
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if t.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.username),
			gomail.WithPassword(t.password),
		)
	}

	client, err := gomail.NewClient(t.host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

// Verify dials the relay and authenticates, then closes the connection
func (t *SMTPTransport) Verify(ctx context.Context) error {
	client, err := t.newClient()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("SMTP connection check failed: %w", err)
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close SMTP connection: %w", err)
	}
	return nil
}

// Send dials the relay and delivers the message
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	client, err := t.newClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

func buildMsg(msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	}
	return m, nil
}
