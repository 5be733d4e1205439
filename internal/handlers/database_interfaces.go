package handlers

import (
	"context"
)

// DatabaseHealthChecker reports whether the credential store is reachable
type DatabaseHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MailVerifier checks the outgoing mail transport
type MailVerifier interface {
	Verify(ctx context.Context) error
}
