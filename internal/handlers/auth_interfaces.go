// Package handlers provides HTTP request handlers for the auth API.
package handlers

import (
	"context"

	"github.com/yasinhessnawi1/authgate/internal/auth"
	"github.com/yasinhessnawi1/authgate/internal/models"
)

// AuthServiceInterface defines the methods required from the authentication service.
// This interface is used by the handlers to interact with the authentication business logic
// without being tightly coupled to the implementation.
type AuthServiceInterface interface {
	// Register creates a new account.
	//
	// Returns:
	//   - The public view of the new user
	//   - A validation error when the email is already registered
	Register(ctx context.Context, req *models.RegistrationRequest) (*models.PublicUser, error)

	// Login checks credentials and issues a session token.
	//
	// Returns:
	//   - The token response
	//   - A not found error for an unknown email, a validation error for a wrong password
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)

	// ForgotPassword emails a password reset link to the account owner.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error

	// ResetPassword stores a new password given a valid reset token.
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error

	// ListUsers returns every account without its password hash.
	ListUsers(ctx context.Context) ([]*models.PublicUser, error)

	// CurrentUser describes the verified session token of the caller.
	CurrentUser(claims *auth.Claims) *models.TokenInfo
}
