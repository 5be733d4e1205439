package auth

import "time"

// TokenIssuer issues signed tokens. It is implemented by TokenService and
// mocked in service tests.
type TokenIssuer interface {
	// Issue returns a signed token for the subject and purpose, and its expiry
	Issue(subjectID string, purpose Purpose) (string, time.Time, error)

	// TTL returns the configured lifetime for a purpose
	TTL(purpose Purpose) (time.Duration, error)
}

// TokenVerifier verifies tokens for a required purpose
type TokenVerifier interface {
	VerifyPurpose(tokenString string, purpose Purpose) (*Claims, error)
}

// TokenManager combines issuing and verification
type TokenManager interface {
	TokenIssuer
	TokenVerifier
}

var _ TokenManager = (*TokenService)(nil)
