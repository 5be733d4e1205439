package middleware

import (
	"net/http"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// SessionAuth is a middleware that requires a valid session token in the
// Authorization header. Password reset tokens are refused.
func SessionAuth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	provider := auth.NewBearerAuthProvider(verifier)
	return auth.RequireAuth(provider)
}

// NoStore marks responses as uncacheable. Auth responses carry tokens and
// account data that must not end up in shared caches.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
			w.Header().Set(constants.HeaderPragma, constants.PragmaNoCache)
			w.Header().Set(constants.HeaderExpires, constants.ExpiresZero)

			next.ServeHTTP(w, r)
		})
	}
}
