// Package auth provides token issuance, password hashing and the bearer
// authentication middleware used by the protected routes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// ClaimsContextKey is the context key for the verified session claims.
const ClaimsContextKey ContextKey = "auth_claims"

// AuthProvider defines how a request is authenticated.
type AuthProvider interface {
	// Authenticate extracts credentials from the request and returns the
	// verified session claims.
	Authenticate(r *http.Request) (*Claims, error)
}

// BearerAuthProvider authenticates requests carrying an
// "Authorization: Bearer <token>" header with a session token.
type BearerAuthProvider struct {
	verifier TokenVerifier
}

// NewBearerAuthProvider creates a BearerAuthProvider backed by the given verifier.
func NewBearerAuthProvider(verifier TokenVerifier) *BearerAuthProvider {
	return &BearerAuthProvider{verifier: verifier}
}

// Authenticate implements AuthProvider.
// Reset tokens are rejected here even when valid, since only session tokens grant access.
func (p *BearerAuthProvider) Authenticate(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return nil, utils.ErrUnauthorized
	}

	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, constants.BearerTokenPrefix))
	if token == "" {
		return nil, utils.ErrUnauthorized
	}

	return p.verifier.VerifyPurpose(token, PurposeSession)
}

// RequireAuth returns a middleware that rejects unauthenticated requests with
// 401 and stores the verified claims in the request context otherwise.
func RequireAuth(provider AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r)

			claims, err := provider.Authenticate(r)
			if err != nil {
				log.Info().
					Err(err).
					Str(constants.RequestIDContextKey, requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Authentication failed")

				switch {
				case errors.Is(err, ErrTokenExpired):
					utils.ErrorFromAppError(w, utils.NewExpiredTokenError())
				case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenPurpose):
					utils.ErrorFromAppError(w, utils.NewInvalidTokenError())
				default:
					utils.Unauthorized(w, constants.MsgAuthRequired)
				}
				return
			}

			log.Debug().
				Str(constants.UserIDContextKey, claims.SubjectID()).
				Str(constants.RequestIDContextKey, requestID).
				Str("path", r.URL.Path).
				Msg("User authenticated")

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the verified claims stored by RequireAuth.
func GetClaims(r *http.Request) (*Claims, bool) {
	claims, ok := r.Context().Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// GetUserID returns the authenticated user's id.
func GetUserID(r *http.Request) (string, bool) {
	claims, ok := GetClaims(r)
	if !ok {
		return "", false
	}
	return claims.SubjectID(), true
}

// GetRequestID returns the id assigned to the request by the RequestID middleware.
func GetRequestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}
