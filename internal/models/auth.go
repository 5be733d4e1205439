package models

import "time"

// RegistrationRequest is the body of POST /register.
type RegistrationRequest struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// RegistrationResponse is returned by a successful registration.
type RegistrationResponse struct {
	Message string      `json:"message"`
	User    *PublicUser `json:"user"`
}

// TokenInfo describes the verified session token of the caller.
type TokenInfo struct {
	ID        string    `json:"id"`
	Purpose   string    `json:"purpose"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProtectedResponse is returned by GET /protected.
type ProtectedResponse struct {
	Message string     `json:"message"`
	User    *TokenInfo `json:"user"`
}
