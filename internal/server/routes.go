package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/middleware"
)

// SetupRoutes configures the routes for the application.
//
// The configured routes include:
//   - GET / banner, GET /health and GET /metrics (unprotected)
//   - Authentication endpoints under /api/auth (register, login, password reset)
//   - The user listing at /api/auth/users
//   - GET /api/auth/protected, which requires a session token
//
// Unknown routes and wrong methods answer with the JSON error body.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	// CORS runs first so that preflights never reach the rest of the chain
	r.Use(middleware.CORS(s.Config.CORS))

	// Base middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger())
	r.Use(middleware.HTTPMetrics(s.metrics))
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())

	// Set before mounting so the /api/auth subrouter inherits them
	r.NotFound(s.Handlers.GenericHandler.NotFound)
	r.MethodNotAllowed(s.Handlers.GenericHandler.MethodNotAllowed)

	r.Get(constants.RootPath, s.Handlers.GenericHandler.Root)
	r.Get(constants.HealthPath, s.Handlers.GenericHandler.Health)
	r.Method(http.MethodGet, constants.MetricsPath, s.metrics.Handler())

	r.Route(constants.AuthPath, func(r chi.Router) {
		r.Use(middleware.NoStore())

		// Public auth endpoints
		r.Group(func(r chi.Router) {
			r.Post(constants.RegisterPath, s.Handlers.AuthHandler.Register)
			r.Post(constants.LoginPath, s.Handlers.AuthHandler.Login)
			r.Post(constants.ForgotPasswordPath, s.Handlers.PasswordResetHandler.ForgotPassword)
			r.Post(constants.ResetPasswordPath, s.Handlers.PasswordResetHandler.ResetPassword)
			r.Get(constants.UsersPath, s.Handlers.UserHandler.ListUsers)
		})

		// Protected auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(s.authProviders.Tokens))
			r.Get(constants.ProtectedPath, s.Handlers.AuthHandler.Protected)
		})
	})

	s.router = r
}
