package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yasinhessnawi1/authgate/internal/mail"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

var errBoom = errors.New("boom")

// MockUserRepository is an in-memory UserRepository
type MockUserRepository struct {
	mu           sync.Mutex
	users        map[string]*models.User
	usersByEmail map[string]*models.User
	nextID       int

	CreateErr         error
	UpdatePasswordErr error
	ListErr           error
	UpdateCalls       int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		nextID:       1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.usersByEmail[user.Email]; ok {
		return utils.NewDuplicateError("User", "email", user.Email)
	}

	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.nextID++

	stored := *user
	m.users[user.ID] = &stored
	m.usersByEmail[user.Email] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User", id)
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, utils.NewNotFoundError("User", email)
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.usersByEmail[email]
	return ok, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdatePasswordErr != nil {
		return m.UpdatePasswordErr
	}
	user, ok := m.users[id]
	if !ok {
		return utils.NewNotFoundError("User", id)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	users := make([]*models.User, 0, len(m.users))
	for i := 1; i < m.nextID; i++ {
		if u, ok := m.users[fmt.Sprintf("user-%d", i)]; ok {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, nil
}

// put stores a user directly, bypassing registration
func (m *MockUserRepository) put(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.usersByEmail[user.Email] = user
}

func (m *MockUserRepository) hashOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].PasswordHash
}

func (m *MockUserRepository) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		delete(m.usersByEmail, u.Email)
		delete(m.users, id)
	}
}

// MockResetTokenRepository is an in-memory ResetTokenRepository
type MockResetTokenRepository struct {
	mu       sync.Mutex
	consumed map[string]*models.ConsumedResetToken

	MarkConsumedErr  error
	DeleteExpiredErr error
	Released         []string
}

func NewMockResetTokenRepository() *MockResetTokenRepository {
	return &MockResetTokenRepository{consumed: make(map[string]*models.ConsumedResetToken)}
}

func (m *MockResetTokenRepository) MarkConsumed(ctx context.Context, token *models.ConsumedResetToken) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MarkConsumedErr != nil {
		return false, m.MarkConsumedErr
	}
	if _, ok := m.consumed[token.JTI]; ok {
		return false, nil
	}
	copied := *token
	m.consumed[token.JTI] = &copied
	return true, nil
}

func (m *MockResetTokenRepository) Release(ctx context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Released = append(m.Released, jti)
	delete(m.consumed, jti)
	return nil
}

func (m *MockResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteExpiredErr != nil {
		return 0, m.DeleteExpiredErr
	}
	var count int64
	for jti, token := range m.consumed {
		if token.ExpiresAt.Before(now) {
			delete(m.consumed, jti)
			count++
		}
	}
	return count, nil
}

func (m *MockResetTokenRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.consumed)
}

// sentResetEmail is one recorded call to MockMailer
type sentResetEmail struct {
	To       string
	Token    string
	ValidFor time.Duration
}

// MockMailer records password reset emails instead of sending them
type MockMailer struct {
	mu   sync.Mutex
	Sent []sentResetEmail
	Err  error
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string, validFor time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, sentResetEmail{To: toEmail, Token: token, ValidFor: validFor})
	return nil
}

func (m *MockMailer) last() sentResetEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sent[len(m.Sent)-1]
}

// MockTransport is a mail.Transport with overridable behavior
type MockTransport struct {
	VerifyFunc func(ctx context.Context) error
	SendFunc   func(ctx context.Context, msg *mail.Message) error

	mu          sync.Mutex
	VerifyCalls int
	Messages    []*mail.Message
}

func (m *MockTransport) Name() string {
	return "mock"
}

func (m *MockTransport) Verify(ctx context.Context) error {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()

	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx)
	}
	return nil
}

func (m *MockTransport) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	m.Messages = append(m.Messages, msg)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}
