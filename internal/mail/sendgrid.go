package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yasinhessnawi1/authgate/internal/constants"
)

const (
	sendGridHost         = "https://api.sendgrid.com"
	sendGridSendEndpoint = "/v3/mail/send"
	// scopes is the cheapest authenticated endpoint, used as a credential check
	sendGridScopesEndpoint = "/v3/scopes"
)

// SendGridTransport delivers mail through the SendGrid v3 API
type SendGridTransport struct {
	apiKey string
	host   string
}

// NewSendGridTransport creates a SendGrid transport for the given API key
func NewSendGridTransport(apiKey string) *SendGridTransport {
	return &SendGridTransport{apiKey: apiKey, host: sendGridHost}
}

// Name implements Transport
func (t *SendGridTransport) Name() string {
	return constants.MailTransportSendGrid
}

// Verify checks that the API key is accepted
func (t *SendGridTransport) Verify(ctx context.Context) error {
	req := sendgrid.GetRequest(t.apiKey, sendGridScopesEndpoint, t.host)
	req.Method = http.MethodGet

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("SendGrid connection check failed: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SendGrid connection check failed: status %d", resp.StatusCode)
	}
	return nil
}

// Send delivers the message
func (t *SendGridTransport) Send(ctx context.Context, msg *Message) error {
	from := sgmail.NewEmail("", msg.From)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	// GetRequest defaults to GET; the send endpoint only accepts POST
	req := sendgrid.GetRequest(t.apiKey, sendGridSendEndpoint, t.host)
	req.Method = http.MethodPost
	client := &sendgrid.Client{Request: req}
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email via SendGrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("SendGrid accepted message")
	return nil
}
