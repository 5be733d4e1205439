package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/metrics"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/repository"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// TokenTypeBearer is the token_type returned on login
const TokenTypeBearer = "Bearer"

// AuthService handles authentication operations
type AuthService struct {
	userRepo    repository.UserRepository
	resetRepo   repository.ResetTokenRepository
	hasher      auth.PasswordHasher
	tokens      auth.TokenManager
	mailer      PasswordResetMailer
	allowReplay bool
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.ResetTokenRepository,
	hasher auth.PasswordHasher,
	tokens auth.TokenManager,
	mailer PasswordResetMailer,
	resetCfg *config.ResetSettings,
	m *metrics.Metrics,
) *AuthService {
	allowReplay := false
	if resetCfg != nil {
		allowReplay = resetCfg.AllowReplay
	}
	return &AuthService{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		allowReplay: allowReplay,
		metrics:     m,
		now:         time.Now,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req *models.RegistrationRequest) (*models.PublicUser, error) {
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(req.Email)

	// Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		s.recordAuth(constants.LogEventRegister, "", email, false, "email already registered")
		return nil, newUserExistsError()
	}

	// Hash before anything is persisted so a user is never stored half built
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(req.Username, email, passwordHash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration may win between the check and the insert
		if utils.IsDuplicateError(err) {
			s.recordAuth(constants.LogEventRegister, "", email, false, "email already registered")
			return nil, newUserExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recordAuth(constants.LogEventRegister, user.ID, user.Email, true, "")

	return user.Sanitize(), nil
}

// Login verifies user credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := models.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			s.recordAuth(constants.LogEventLogin, "", email, false, "user not found")
			return nil, utils.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		s.recordAuth(constants.LogEventLogin, user.ID, user.Email, false, "invalid password")
		return nil, utils.NewInvalidCredentialsError()
	}

	// Upgrade legacy or outdated hashes while the plaintext is at hand
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, req.Password)
	}

	token, _, err := s.tokens.Issue(user.ID, auth.PurposeSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	ttl, err := s.tokens.TTL(auth.PurposeSession)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session lifetime: %w", err)
	}

	s.recordAuth(constants.LogEventLogin, user.ID, user.Email, true, "")

	return &models.LoginResponse{
		Token:     token,
		TokenType: TokenTypeBearer,
		ExpiresIn: int64(ttl / time.Second),
	}, nil
}

// upgradeHash rehashes a password with the current parameters.
// Failures are logged only; the login itself already succeeded.
func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		log.Warn().Err(err).Str(constants.UserIDContextKey, user.ID).Msg("Failed to rehash password")
		return
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		log.Warn().Err(err).Str(constants.UserIDContextKey, user.ID).Msg("Failed to store upgraded password hash")
		return
	}
	log.Info().Str(constants.UserIDContextKey, user.ID).Msg("Upgraded password hash")
}

// ForgotPassword issues a reset token for the account and emails the link
func (s *AuthService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	email := models.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			s.recordAuth(constants.LogEventForgotPassword, "", email, false, "user not found")
			return utils.NewUserNotFoundError()
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, auth.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	validFor, err := s.tokens.TTL(auth.PurposePasswordReset)
	if err != nil {
		validFor = expiresAt.Sub(s.now())
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token, validFor); err != nil {
		s.recordAuth(constants.LogEventForgotPassword, user.ID, user.Email, false, "mail delivery failed")
		return err
	}

	s.recordAuth(constants.LogEventForgotPassword, user.ID, user.Email, true, "")
	return nil
}

// ResetPassword verifies a reset token and stores the new password
func (s *AuthService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	claims, err := s.tokens.VerifyPurpose(req.Token, auth.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			s.recordAuth(constants.LogEventResetPassword, "", "", false, "expired reset token")
			return utils.NewExpiredResetTokenError()
		}
		s.recordAuth(constants.LogEventResetPassword, "", "", false, "invalid reset token")
		return utils.NewInvalidResetTokenError()
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		return err
	}

	userID := claims.SubjectID()
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			s.recordAuth(constants.LogEventResetPassword, userID, "", false, "user not found")
			return utils.NewUserNotFoundError()
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	consumed := false
	if !s.allowReplay {
		claimed, err := s.resetRepo.MarkConsumed(ctx, &models.ConsumedResetToken{
			JTI:        claims.ID,
			UserID:     user.ID,
			ExpiresAt:  claims.ExpiresAtTime(),
			ConsumedAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to record reset token use: %w", err)
		}
		if !claimed {
			s.recordAuth(constants.LogEventResetPassword, user.ID, user.Email, false, "reset token already used")
			return utils.NewInvalidResetTokenError()
		}
		consumed = true
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, user.ID, passwordHash)
	}
	if err != nil {
		// Give the token back so the user can retry with the same link
		if consumed {
			if releaseErr := s.resetRepo.Release(ctx, claims.ID); releaseErr != nil {
				log.Error().Err(releaseErr).Str(constants.UserIDContextKey, user.ID).Msg("Failed to release reset token")
			}
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.recordAuth(constants.LogEventResetPassword, user.ID, user.Email, true, "")
	return nil
}

// ListUsers returns the public view of every account
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return models.SanitizeUsers(users), nil
}

// CurrentUser describes the verified session of the caller
func (s *AuthService) CurrentUser(claims *auth.Claims) *models.TokenInfo {
	return &models.TokenInfo{
		ID:        claims.SubjectID(),
		Purpose:   string(claims.Purpose),
		IssuedAt:  claims.IssuedAtTime(),
		ExpiresAt: claims.ExpiresAtTime(),
	}
}

// PurgeExpiredResetTokens deletes consumed reset token markers past their expiry
func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	count, err := s.resetRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired reset tokens: %w", err)
	}
	s.metrics.RecordResetTokensPurged(count)
	return count, nil
}

func (s *AuthService) recordAuth(event, userID, email string, success bool, reason string) {
	utils.LogAuth(event, userID, email, success, reason)
	s.metrics.RecordAuthEvent(event, success)
}

func newUserExistsError() *utils.AppError {
	appErr := utils.New(utils.ErrDuplicate, http.StatusBadRequest, constants.MsgUserExists)
	appErr.Field = constants.ColumnEmail
	return appErr
}
