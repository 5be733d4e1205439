package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// Purpose distinguishes a login session token from a password reset token.
type Purpose string

// Token purposes
const (
	PurposeSession       Purpose = constants.PurposeSession
	PurposePasswordReset Purpose = constants.PurposePasswordReset
)

// Token errors. Callers map ErrTokenExpired and ErrTokenMalformed to distinct
// user-facing messages.
var (
	ErrMissingSigningSecret = errors.New("token signing secret is not configured")
	ErrUnknownPurpose       = errors.New("unknown token purpose")
	ErrMissingSubject       = errors.New("token subject is required")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("token is malformed or its signature is invalid")
	ErrTokenPurpose         = errors.New("token was issued for a different purpose")
)

// Claims represents the claims carried by every token
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// SubjectID returns the id of the user the token was issued for
func (c *Claims) SubjectID() string {
	return c.Subject
}

// IssuedAtTime returns the issue instant, or the zero time when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the expiry instant, or the zero time when absent
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenService issues and verifies HS256 signed tokens.
// It holds no mutable state after construction and is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttls   map[Purpose]time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService
type TokenOption func(*TokenService)

// WithClock replaces the clock used for issuing and checking expiry
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService creates a TokenService from the JWT settings.
// It fails with ErrMissingSigningSecret when no secret is configured, so the
// check happens once at startup rather than on every call.
func NewTokenService(cfg *config.JWTSettings, opts ...TokenOption) (*TokenService, error) {
	if cfg == nil || cfg.Secret == "" {
		return nil, ErrMissingSigningSecret
	}

	sessionTTL := cfg.SessionExpiry
	if sessionTTL <= 0 {
		sessionTTL = constants.DefaultSessionTokenExpiry
	}
	resetTTL := cfg.ResetExpiry
	if resetTTL <= 0 {
		resetTTL = constants.DefaultResetTokenExpiry
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = constants.DefaultJWTIssuer
	}

	s := &TokenService{
		secret: []byte(cfg.Secret),
		issuer: issuer,
		ttls: map[Purpose]time.Duration{
			PurposeSession:       sessionTTL,
			PurposePasswordReset: resetTTL,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL returns the lifetime of tokens issued for the given purpose
func (s *TokenService) TTL(purpose Purpose) (time.Duration, error) {
	ttl, ok := s.ttls[purpose]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}
	return ttl, nil
}

// Issue signs a token for the subject and purpose and returns it with its expiry.
// Every token carries a fresh jti, so two tokens for the same subject never collide.
func (s *TokenService) Issue(subjectID string, purpose Purpose) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	ttl, err := s.TTL(purpose)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
// It returns ErrTokenExpired once the expiry has passed and ErrTokenMalformed
// for anything that cannot be trusted (bad signature, undecodable payload,
// foreign issuer, missing subject or purpose).
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if _, ok := s.ttls[claims.Purpose]; !ok {
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrTokenMalformed, claims.Purpose)
	}

	return claims, nil
}

// VerifyPurpose verifies a token and additionally requires it to have been
// issued for the given purpose.
func (s *TokenService) VerifyPurpose(tokenString string, purpose Purpose) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenPurpose
	}
	return claims, nil
}
