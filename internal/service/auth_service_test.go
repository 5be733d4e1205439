package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/metrics"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// testClock is a manually advanced clock shared by the token service and the auth service
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	svc     *AuthService
	users   *MockUserRepository
	resets  *MockResetTokenRepository
	mailer  *MockMailer
	tokens  *auth.TokenService
	hasher  auth.PasswordHasher
	clock   *testClock
	metrics *metrics.Metrics
}

func testHasher() auth.PasswordHasher {
	return auth.NewPasswordHasher(&auth.PasswordConfig{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func newAuthFixture(t *testing.T, resetCfg *config.ResetSettings) *authFixture {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenService(&config.JWTSettings{
		Secret:        "test-secret",
		SessionExpiry: time.Hour,
		ResetExpiry:   15 * time.Minute,
		Issuer:        "authgate-test",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	f := &authFixture{
		users:   NewMockUserRepository(),
		resets:  NewMockResetTokenRepository(),
		mailer:  &MockMailer{},
		tokens:  tokens,
		hasher:  testHasher(),
		clock:   clock,
		metrics: metrics.New(),
	}
	f.svc = NewAuthService(f.users, f.resets, f.hasher, f.tokens, f.mailer, resetCfg, f.metrics)
	f.svc.now = clock.Now
	return f
}

func (f *authFixture) register(t *testing.T, username, email, password string) *models.PublicUser {
	t.Helper()
	user, err := f.svc.Register(context.Background(), &models.RegistrationRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func (f *authFixture) resetToken(t *testing.T, email string) string {
	t.Helper()
	require.NoError(t, f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: email}))
	return f.mailer.last().Token
}

func TestAuthService_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		user := f.register(t, "alice", "  Alice@Example.com ", "secret1")

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)

		stored, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		ok, err := f.hasher.Verify("secret1", stored.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")

		_, err := f.svc.Register(context.Background(), &models.RegistrationRequest{
			Username: "alice2",
			Email:    "A@X.com",
			Password: "secret2",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
		assert.True(t, utils.IsDuplicateError(err))
		assert.Equal(t, "email: "+constants.MsgUserExists, err.Error())
	})

	t.Run("Duplicate detected on insert", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.users.CreateErr = utils.NewDuplicateError("User", "email", "a@x.com")

		_, err := f.svc.Register(context.Background(), &models.RegistrationRequest{
			Username: "alice",
			Email:    "a@x.com",
			Password: "secret1",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
	})

	t.Run("Short password", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		_, err := f.svc.Register(context.Background(), &models.RegistrationRequest{
			Username: "alice",
			Email:    "a@x.com",
			Password: "12345",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
	})

	t.Run("Repository failure", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.users.CreateErr = errBoom

		_, err := f.svc.Register(context.Background(), &models.RegistrationRequest{
			Username: "alice",
			Email:    "a@x.com",
			Password: "secret1",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, http.StatusInternalServerError, utils.ParseError(err).StatusCode)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user := f.register(t, "alice", "a@x.com", "secret1")

		resp, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "secret1"})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, TokenTypeBearer, resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		claims, err := f.tokens.VerifyPurpose(resp.Token, auth.PurposeSession)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.SubjectID())
	})

	t.Run("Unknown email is not found", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		_, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@x.com", Password: "secret1"})

		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
		assert.Equal(t, constants.MsgUserNotFound, err.Error())
	})

	t.Run("Wrong password is a validation error", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")

		for _, password := range []string{"wrong", "", "secret11", "SECRET1"} {
			_, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: password})

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode, "password %q", password)
			assert.False(t, utils.IsNotFoundError(err), "password %q", password)
		}
	})

	t.Run("Legacy bcrypt hash is upgraded", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
		require.NoError(t, err)
		f.users.put(&models.User{ID: "legacy-1", Username: "bob", Email: "b@x.com", PasswordHash: string(legacy)})

		_, err = f.svc.Login(context.Background(), &models.LoginRequest{Email: "b@x.com", Password: "secret1"})

		require.NoError(t, err)
		assert.Equal(t, 1, f.users.UpdateCalls)
		assert.False(t, f.hasher.NeedsRehash(f.users.hashOf("legacy-1")))
	})

	t.Run("Argon2 hash with old parameters is upgraded", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		old, err := auth.HashPassword("secret1", &auth.PasswordConfig{
			Memory:      512,
			Iterations:  2,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		})
		require.NoError(t, err)
		f.users.put(&models.User{ID: "argon-1", Username: "carol", Email: "c@x.com", PasswordHash: old})

		_, err = f.svc.Login(context.Background(), &models.LoginRequest{Email: "c@x.com", Password: "secret1"})

		require.NoError(t, err)
		assert.Equal(t, 1, f.users.UpdateCalls)
		assert.NotEqual(t, old, f.users.hashOf("argon-1"))
		assert.False(t, f.hasher.NeedsRehash(f.users.hashOf("argon-1")))
	})

	t.Run("Failed hash upgrade does not fail login", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
		require.NoError(t, err)
		f.users.put(&models.User{ID: "legacy-1", Username: "bob", Email: "b@x.com", PasswordHash: string(legacy)})
		f.users.UpdatePasswordErr = errBoom

		resp, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "b@x.com", Password: "secret1"})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user := f.register(t, "alice", "a@x.com", "secret1")

		err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "A@x.com"})

		require.NoError(t, err)
		require.Len(t, f.mailer.Sent, 1)
		sent := f.mailer.last()
		assert.Equal(t, "a@x.com", sent.To)
		assert.Equal(t, 15*time.Minute, sent.ValidFor)

		claims, err := f.tokens.VerifyPurpose(sent.Token, auth.PurposePasswordReset)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.SubjectID())
	})

	t.Run("Unknown email never invokes the mailer", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "unknown@x.com"})

		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
		assert.Empty(t, f.mailer.Sent)
	})

	t.Run("Mailer failure is a dependency error", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		f.mailer.Err = utils.NewDependencyError(constants.MsgMailUnavailable, errBoom)

		err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "a@x.com"})

		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrDependency)
		assert.Equal(t, http.StatusInternalServerError, utils.ParseError(err).StatusCode)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user := f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"})

		require.NoError(t, err)
		assert.Equal(t, 1, f.resets.count())

		_, err = f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "newpass1"})
		assert.NoError(t, err)
		_, err = f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "secret1"})
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)

		assert.NotEmpty(t, user.ID)
	})

	t.Run("Token is single use", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		require.NoError(t, f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"}))
		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass2"})

		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
	})

	t.Run("Replay allowed when configured", func(t *testing.T) {
		f := newAuthFixture(t, &config.ResetSettings{AllowReplay: true})
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		require.NoError(t, f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"}))
		require.NoError(t, f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass2"}))
		assert.Equal(t, 0, f.resets.count())
	})

	t.Run("Expired token", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		f.clock.Advance(16 * time.Minute)
		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrExpiredToken)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
		assert.Equal(t, constants.MsgResetTokenExpired, err.Error())
	})

	t.Run("Token still valid just before expiry", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		f.clock.Advance(14 * time.Minute)
		assert.NoError(t, f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"}))
	})

	t.Run("Session token is rejected", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		login, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)

		err = f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: login.Token, Password: "newpass1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
		assert.Equal(t, http.StatusBadRequest, utils.ParseError(err).StatusCode)
	})

	t.Run("Garbage token", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: "not-a-jwt", Password: "newpass1"})

		require.Error(t, err)
		assert.Equal(t, constants.MsgResetTokenInvalid, err.Error())
	})

	t.Run("Short password", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "123"})

		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrValidation)
		assert.Equal(t, 0, f.resets.count())
	})

	t.Run("User deleted after token was issued", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user := f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")
		f.users.remove(user.ID)

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"})

		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
	})

	t.Run("Failed update releases the token", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")
		f.users.UpdatePasswordErr = errBoom

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		assert.Len(t, f.resets.Released, 1)
		assert.Equal(t, 0, f.resets.count())

		// The same link works once the store recovers
		f.users.UpdatePasswordErr = nil
		assert.NoError(t, f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"}))
	})

	t.Run("Ledger failure", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		token := f.resetToken(t, "a@x.com")
		f.resets.MarkConsumedErr = errBoom

		err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "newpass1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 0, f.users.UpdateCalls)
	})
}

func TestAuthService_ListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.register(t, "alice", "a@x.com", "secret1")
		f.register(t, "bob", "b@x.com", "secret2")

		users, err := f.svc.ListUsers(context.Background())

		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})

	t.Run("Repository failure", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.users.ListErr = errBoom

		_, err := f.svc.ListUsers(context.Background())

		assert.ErrorIs(t, err, errBoom)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := newAuthFixture(t, nil)
	token, expiresAt, err := f.tokens.Issue("user-42", auth.PurposeSession)
	require.NoError(t, err)
	claims, err := f.tokens.VerifyPurpose(token, auth.PurposeSession)
	require.NoError(t, err)

	info := f.svc.CurrentUser(claims)

	assert.Equal(t, "user-42", info.ID)
	assert.Equal(t, string(auth.PurposeSession), info.Purpose)
	assert.True(t, info.IssuedAt.Equal(f.clock.Now()))
	assert.True(t, info.ExpiresAt.Equal(expiresAt))
}

func TestAuthService_PurgeExpiredResetTokens(t *testing.T) {
	t.Run("Deletes only expired markers", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		now := f.clock.Now()
		_, _ = f.resets.MarkConsumed(context.Background(), &models.ConsumedResetToken{JTI: "old", ExpiresAt: now.Add(-time.Minute)})
		_, _ = f.resets.MarkConsumed(context.Background(), &models.ConsumedResetToken{JTI: "fresh", ExpiresAt: now.Add(time.Minute)})

		count, err := f.svc.PurgeExpiredResetTokens(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, 1, f.resets.count())
	})

	t.Run("Repository failure", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.resets.DeleteExpiredErr = errBoom

		_, err := f.svc.PurgeExpiredResetTokens(context.Background())

		assert.ErrorIs(t, err, errBoom)
	})
}
