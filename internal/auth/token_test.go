package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
)

const testSecret = "test-signing-secret-with-enough-length"

// fakeClock is a manually advanced clock
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTokenService(t *testing.T, clock *fakeClock) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(&config.JWTSettings{
		Secret:        testSecret,
		SessionExpiry: time.Hour,
		ResetExpiry:   15 * time.Minute,
		Issuer:        "authgate-test",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.JWTSettings
		wantErr error
	}{
		{
			name:    "nil settings",
			cfg:     nil,
			wantErr: auth.ErrMissingSigningSecret,
		},
		{
			name:    "empty secret",
			cfg:     &config.JWTSettings{SessionExpiry: time.Hour},
			wantErr: auth.ErrMissingSigningSecret,
		},
		{
			name: "valid settings",
			cfg:  &config.JWTSettings{Secret: testSecret},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewTokenService(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
		})
	}
}

func TestTokenService_DefaultTTLs(t *testing.T) {
	svc, err := auth.NewTokenService(&config.JWTSettings{Secret: testSecret})
	require.NoError(t, err)

	ttl, err := svc.TTL(auth.PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	ttl, err = svc.TTL(auth.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)

	_, err = svc.TTL(auth.Purpose("refresh"))
	assert.ErrorIs(t, err, auth.ErrUnknownPurpose)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	token, expiresAt, err := svc.Issue("user-42", auth.PurposeSession)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 3, len(strings.Split(token, ".")))
	assert.Equal(t, clock.now.Add(time.Hour), expiresAt)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.SubjectID())
	assert.Equal(t, auth.PurposeSession, claims.Purpose)
	assert.Equal(t, "authgate-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IssuedAtTime().Equal(clock.now))
	assert.True(t, claims.ExpiresAtTime().Equal(expiresAt))
}

func TestTokenService_IssueErrors(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestTokenService(t, clock)

	_, _, err := svc.Issue("", auth.PurposeSession)
	assert.ErrorIs(t, err, auth.ErrMissingSubject)

	_, _, err = svc.Issue("user-1", auth.Purpose("refresh"))
	assert.ErrorIs(t, err, auth.ErrUnknownPurpose)
}

func TestTokenService_IssueProducesDistinctTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestTokenService(t, clock)

	first, _, err := svc.Issue("user-1", auth.PurposePasswordReset)
	require.NoError(t, err)
	second, _, err := svc.Issue("user-1", auth.PurposePasswordReset)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	firstClaims, err := svc.Verify(first)
	require.NoError(t, err)
	secondClaims, err := svc.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenService_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		purpose auth.Purpose
		elapsed time.Duration
		wantErr error
	}{
		{name: "session still valid at 59 minutes", purpose: auth.PurposeSession, elapsed: 59 * time.Minute},
		{name: "session expired at 61 minutes", purpose: auth.PurposeSession, elapsed: 61 * time.Minute, wantErr: auth.ErrTokenExpired},
		{name: "reset still valid at 14 minutes", purpose: auth.PurposePasswordReset, elapsed: 14 * time.Minute},
		{name: "reset expired at 16 minutes", purpose: auth.PurposePasswordReset, elapsed: 16 * time.Minute, wantErr: auth.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
			svc := newTestTokenService(t, clock)

			token, _, err := svc.Issue("user-1", tt.purpose)
			require.NoError(t, err)

			clock.Advance(tt.elapsed)
			claims, err := svc.VerifyPurpose(token, tt.purpose)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.SubjectID())
		})
	}
}

func TestTokenService_VerifyPurposeMismatch(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestTokenService(t, clock)

	resetToken, _, err := svc.Issue("user-1", auth.PurposePasswordReset)
	require.NoError(t, err)
	sessionToken, _, err := svc.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)

	_, err = svc.VerifyPurpose(resetToken, auth.PurposeSession)
	assert.ErrorIs(t, err, auth.ErrTokenPurpose)

	_, err = svc.VerifyPurpose(sessionToken, auth.PurposePasswordReset)
	assert.ErrorIs(t, err, auth.ErrTokenPurpose)
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestTokenService(t, clock)

	other, err := auth.NewTokenService(&config.JWTSettings{
		Secret: "a-completely-different-secret",
		Issuer: "authgate-test",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)
	foreignToken, _, err := other.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)

	validToken, _, err := svc.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)
	parts := strings.Split(validToken, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":     "user-1",
		"purpose": "session",
		"iss":     "authgate-test",
		"exp":     clock.now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	missingSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"purpose": "session",
		"iss":     "authgate-test",
		"exp":     clock.now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unknownPurpose, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "user-1",
		"purpose": "refresh",
		"iss":     "authgate-test",
		"exp":     clock.now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "signed with another secret", token: foreignToken},
		{name: "tampered payload", token: tampered},
		{name: "unsigned token", token: noneToken},
		{name: "missing subject", token: missingSubject},
		{name: "unknown purpose", token: unknownPurpose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrTokenMalformed)
			assert.False(t, errors.Is(err, auth.ErrTokenExpired))
			assert.Nil(t, claims)
		})
	}
}

func TestTokenService_ExpiredWithWrongSecretIsMalformed(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestTokenService(t, clock)

	other, err := auth.NewTokenService(&config.JWTSettings{
		Secret: "a-completely-different-secret",
		Issuer: "authgate-test",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)
	token, _, err := other.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenMalformed)
}
