package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/middleware"
)

func newTokenService(t *testing.T, now func() time.Time) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(&config.JWTSettings{
		Secret:        "middleware-test-secret",
		SessionExpiry: time.Hour,
		ResetExpiry:   15 * time.Minute,
	}, auth.WithClock(now))
	require.NoError(t, err)
	return tokens
}

func TestSessionAuth(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	tokens := newTokenService(t, time.Now)
	staleTokens := newTokenService(t, func() time.Time { return issuedAt })

	session, _, err := tokens.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)
	reset, _, err := tokens.Issue("user-1", auth.PurposePasswordReset)
	require.NoError(t, err)
	expired, _, err := staleTokens.Issue("user-1", auth.PurposeSession)
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectStatus int
		expectCode   string
		expectCalled bool
	}{
		{name: "Valid session token", header: "Bearer " + session, expectStatus: http.StatusOK, expectCalled: true},
		{name: "Missing header", expectStatus: http.StatusUnauthorized, expectCode: constants.CodeUnauthorized},
		{name: "Wrong scheme", header: "Basic dXNlcjpwYXNz", expectStatus: http.StatusUnauthorized, expectCode: constants.CodeUnauthorized},
		{name: "Empty bearer", header: "Bearer ", expectStatus: http.StatusUnauthorized, expectCode: constants.CodeUnauthorized},
		{name: "Garbage token", header: "Bearer not.a.jwt", expectStatus: http.StatusUnauthorized, expectCode: constants.CodeTokenInvalid},
		{name: "Reset token refused", header: "Bearer " + reset, expectStatus: http.StatusUnauthorized, expectCode: constants.CodeTokenInvalid},
		{name: "Expired session", header: "Bearer " + expired, expectStatus: http.StatusUnauthorized, expectCode: constants.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject string
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				claims, ok := auth.GetClaims(r)
				require.True(t, ok)
				gotSubject = claims.SubjectID()
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/protected", nil)
			if tt.header != "" {
				req.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			rr := httptest.NewRecorder()

			middleware.SessionAuth(tokens)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectStatus, rr.Code)
			assert.Equal(t, tt.expectCalled, called)
			if tt.expectCalled {
				assert.Equal(t, "user-1", gotSubject)
			}
			if tt.expectCode != "" {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tt.expectCode, body["code"])
			}
		})
	}
}

func TestNoStore(t *testing.T) {
	next := &MockHandler{}
	rr := httptest.NewRecorder()

	middleware.NoStore()(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.True(t, next.Called)
	assert.Equal(t, constants.CacheControlNoStore, rr.Header().Get(constants.HeaderCacheControl))
	assert.Equal(t, constants.PragmaNoCache, rr.Header().Get(constants.HeaderPragma))
	assert.Equal(t, constants.ExpiresZero, rr.Header().Get(constants.HeaderExpires))
}
