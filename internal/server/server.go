// Package server provides the HTTP server for the auth API.
// It wires the credential store, token service, mailer and handlers together,
// configures routing and middleware, and manages the server lifecycle.
//
// Initialization follows a fixed order so that every component receives
// ready dependencies: database → auth providers → services → handlers → routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/database"
	"github.com/yasinhessnawi1/authgate/internal/handlers"
	"github.com/yasinhessnawi1/authgate/internal/mail"
	"github.com/yasinhessnawi1/authgate/internal/metrics"
	"github.com/yasinhessnawi1/authgate/internal/repository"
	"github.com/yasinhessnawi1/authgate/internal/service"
	"github.com/yasinhessnawi1/authgate/migrations"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// AuthHandler serves registration, login and the protected route
	AuthHandler *handlers.AuthHandler

	// PasswordResetHandler serves the forgot and reset password routes
	PasswordResetHandler *handlers.PasswordResetHandler

	// UserHandler serves the user listing
	UserHandler *handlers.UserHandler

	// GenericHandler serves the banner, health and routing fallbacks
	GenericHandler *handlers.GenericHandler
}

// AuthProviders contains the token service and password hasher shared by
// the services and the session middleware.
type AuthProviders struct {
	// Tokens issues and verifies session and reset tokens
	Tokens *auth.TokenService

	// Hasher hashes new passwords and verifies stored hashes
	Hasher *auth.Argon2Hasher
}

// Dependencies are the external resources the server is built on.
// NewServer opens them from the configuration.
type Dependencies struct {
	// DB is the open credential store connection, closed on shutdown
	DB ServerDBHealthChecker

	// Users and ResetTokens are the repositories on top of DB
	Users       repository.UserRepository
	ResetTokens repository.ResetTokenRepository

	// Mail is the outgoing mail transport, or nil when none is configured
	Mail mail.Transport

	// Metrics is optional; a fresh registry is created when nil
	Metrics *metrics.Metrics
}

// Server represents the auth API server.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db ServerDBHealthChecker

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	router          chi.Router
	authProviders   *AuthProviders
	authService     *service.AuthService
	metrics         *metrics.Metrics
	httpServer      *http.Server
	stopMaintenance context.CancelFunc
	maintenanceDone chan struct{}
}

// NewServer creates a new server instance with all required components.
// It opens the database selected by the configured URI, brings its schema up
// to date and picks the mail transport before wiring the rest of the server.
//
// Parameters:
//   - cfg: Application configuration including database, server, and auth settings
//
// Returns:
//   - A fully initialized Server instance ready to start
//   - An error if initialization of any component fails
func NewServer(cfg *config.AppConfig) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBConnectionTimeout)
	defer cancel()

	backend, err := setupDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	transport, err := setupMail(&cfg.Mail)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to set up mail transport: %w", err)
	}

	repos := repository.New(backend)
	s, err := NewServerWithDependencies(cfg, &Dependencies{
		DB:          backend,
		Users:       repos.Users,
		ResetTokens: repos.ResetTokens,
		Mail:        transport,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	return s, nil
}

// NewServerWithDependencies builds the server on already opened dependencies.
//
// Parameters:
//   - cfg: Application configuration
//   - deps: The database connection, repositories and optional mail transport
//
// Returns:
//   - A Server with routes configured
//   - An error if a required dependency is missing or the token service cannot be created
func NewServerWithDependencies(cfg *config.AppConfig, deps *Dependencies) (*Server, error) {
	if deps == nil || deps.DB == nil || deps.Users == nil || deps.ResetTokens == nil {
		return nil, errors.New("database and repositories are required")
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		Config:  cfg,
		Db:      deps.DB,
		metrics: m,
	}

	if err := s.setupAuthProviders(); err != nil {
		return nil, fmt.Errorf("failed to set up auth providers: %w", err)
	}

	mailVerifier := s.setupServices(deps)
	s.setupHandlers(mailVerifier)

	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase opens the credential store and prepares its schema.
// SQL backends run the migrations; MongoDB gets its unique indexes.
func setupDatabase(ctx context.Context, cfg *config.AppConfig) (*database.Backend, error) {
	backend, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if backend.Mongo != nil {
		err = migrations.EnsureMongoIndexes(ctx, backend.Mongo.Database)
	} else {
		err = migrations.NewMigrator(backend.SQL).RunMigrations(ctx)
	}
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return backend, nil
}

// setupMail selects the mail transport. A missing provider is not fatal:
// the API starts and password reset requests fail until mail is configured.
// An unknown transport name is a configuration mistake and is returned.
func setupMail(cfg *config.MailSettings) (mail.Transport, error) {
	transport, err := mail.NewTransport(cfg)
	if err == nil {
		log.Info().Str("transport", transport.Name()).Msg("Mail transport configured")
		return transport, nil
	}
	if errors.Is(err, mail.ErrNotConfigured) {
		log.Warn().Err(err).Msg("No mail transport configured, password reset emails cannot be sent")
		return nil, nil
	}
	return nil, err
}

// setupAuthProviders creates the token service and password hasher
func (s *Server) setupAuthProviders() error {
	tokens, err := auth.NewTokenService(&s.Config.JWT)
	if err != nil {
		return err
	}

	s.authProviders = &AuthProviders{
		Tokens: tokens,
		Hasher: auth.NewPasswordHasher(auth.ConfigFromAppConfig(s.Config)),
	}
	return nil
}

// setupServices creates the email and auth services. It returns the verifier
// reported by the health endpoint, which stays nil without a mail transport.
func (s *Server) setupServices(deps *Dependencies) handlers.MailVerifier {
	var mailVerifier handlers.MailVerifier

	transport := deps.Mail
	if transport == nil {
		transport = mail.Unconfigured(nil)
	}
	emailService := service.NewEmailService(transport, &s.Config.Mail, s.Config.Frontend.URL, s.metrics)
	if deps.Mail != nil {
		mailVerifier = emailService
	}

	s.authService = service.NewAuthService(
		deps.Users,
		deps.ResetTokens,
		s.authProviders.Hasher,
		s.authProviders.Tokens,
		emailService,
		&s.Config.Reset,
		s.metrics,
	)

	return mailVerifier
}

// setupHandlers creates the HTTP handlers on top of the services
func (s *Server) setupHandlers(mailVerifier handlers.MailVerifier) {
	s.Handlers = &Handlers{
		AuthHandler:          handlers.NewAuthHandler(s.authService),
		PasswordResetHandler: handlers.NewPasswordResetHandler(s.authService),
		UserHandler:          handlers.NewUserHandler(s.authService),
		GenericHandler:       handlers.NewGenericHandler(s.Db, mailVerifier, s.Config.App.Version, s.Config.Mail.VerifyTimeout),
	}
}

// Start starts the HTTP server and blocks until it fails or a SIGINT or
// SIGTERM asks it to shut down gracefully.
func (s *Server) Start() error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	return s.serve(shutdown)
}

func (s *Server) serve(shutdown <-chan os.Signal) error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.httpServer.Addr).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		s.stopMaintenanceTasks()
		s.Db.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			// Shutdown the server immediately if graceful shutdown fails
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server. It stops the maintenance loop,
// waits for in-flight requests and then closes the database connection.
//
// Parameters:
//   - ctx: Context with timeout for the shutdown operation
//
// Returns:
//   - An error if shutdown fails within the context timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopMaintenanceTasks()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	s.Db.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// GetRouter returns the configured router
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// SetupMaintenanceTasks starts the background loop that purges expired
// reset token markers every Database.MaintenanceInterval. The loop stops
// when the server shuts down.
func (s *Server) SetupMaintenanceTasks() {
	if s.stopMaintenance != nil {
		return
	}

	interval := s.Config.Database.MaintenanceInterval
	if interval <= 0 {
		interval = constants.DBMaintenanceInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopMaintenance = cancel
	s.maintenanceDone = make(chan struct{})

	go runMaintenance(ctx, interval, s.authService, s.maintenanceDone)
}

func (s *Server) stopMaintenanceTasks() {
	if s.stopMaintenance == nil {
		return
	}
	s.stopMaintenance()
	<-s.maintenanceDone
	s.stopMaintenance = nil
}

func runMaintenance(ctx context.Context, interval time.Duration, purger ResetTokenPurger, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeResetTokens(ctx, purger)
		}
	}
}

func purgeResetTokens(ctx context.Context, purger ResetTokenPurger) {
	taskCtx, cancel := context.WithTimeout(ctx, constants.DBMaintenanceTimeout)
	defer cancel()

	count, err := purger.PurgeExpiredResetTokens(taskCtx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge expired reset tokens")
		return
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Purged expired reset tokens")
	}
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.Config.Server.ShutdownTimeout > 0 {
		return s.Config.Server.ShutdownTimeout
	}
	return constants.DefaultShutdownTimeout
}
