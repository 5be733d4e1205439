package models

import (
	"time"
)

// ForgotPasswordRequest is the body of POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /reset-password.
// The password length is checked by the service so a short password yields
// the same message whichever route receives it.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// ConsumedResetToken records a password reset token that has already been used.
// Rows are keyed by the token's jti and are only needed until the token expires.
type ConsumedResetToken struct {
	JTI        string    `json:"jti" db:"jti"`
	UserID     string    `json:"user_id" db:"user_id"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	ConsumedAt time.Time `json:"consumed_at" db:"consumed_at"`
}

