package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/metrics"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			w.Header().Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			w.Header().Set(constants.HeaderXXSSProtection, constants.XSSProtectionModeBlock)
			w.Header().Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			w.Header().Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)

			next.ServeHTTP(w, r)
		})
	}
}

// CORS sets the cross-origin headers for requests coming from an allowed origin
// and answers preflight requests directly.
//
// An allowed origin of "*" admits every origin. The request origin is echoed
// back rather than "*" so that credentialed requests keep working.
func CORS(settings config.CORSSettings) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(settings.AllowedOrigins))
	for _, origin := range settings.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}
	log.Info().Strs("allowed_origins", settings.AllowedOrigins).Msg("Using CORS allowed origins")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			// If origin is not allowed, continue without setting CORS headers
			if _, ok := allowed[origin]; !ok && !allowAll {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(constants.HeaderAllowOrigin, origin)
			w.Header().Add(constants.HeaderVary, constants.HeaderOrigin)
			if settings.AllowCredentials {
				w.Header().Set(constants.HeaderAllowCredentials, "true")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(constants.HeaderAllowMethods, constants.CORSAllowedMethods)
			w.Header().Set(constants.HeaderAllowHeaders, constants.CORSAllowedHeaders)
			w.Header().Set(constants.HeaderMaxAge, constants.CORSMaxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// RequestLogger logs every request once it has been served, with the status
// the handler wrote and the time it took.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			utils.LogHTTPRequest(
				auth.GetRequestID(r),
				r.Method,
				r.URL.Path,
				r.RemoteAddr,
				r.UserAgent(),
				statusOf(ww),
				time.Since(start),
			)
		})
	}
}

// HTTPMetrics records request counts and latencies labelled by the matched
// route pattern. Unmatched requests share a single label so that scanning
// clients cannot blow up the label cardinality.
func HTTPMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.RecordHTTPRequest(r.Method, routePattern(r), statusOf(ww), time.Since(start))
		})
	}
}

// statusOf returns the status the handler wrote, which is 200 when it only wrote a body
func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

const unmatchedRoute = "unmatched"
