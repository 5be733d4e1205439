// Package repository implements the credential store and the reset token
// ledger on top of the backend chosen by the database URI.
package repository

import (
	"github.com/yasinhessnawi1/authgate/internal/database"
)

// Repositories groups the stores used by the auth service
type Repositories struct {
	Users       UserRepository
	ResetTokens ResetTokenRepository
}

// New builds the repositories for whichever connection the backend holds
func New(backend *database.Backend) *Repositories {
	if backend.Mongo != nil {
		return &Repositories{
			Users:       NewMongoUserRepository(backend.Mongo.Database),
			ResetTokens: NewMongoResetTokenRepository(backend.Mongo.Database),
		}
	}
	return &Repositories{
		Users:       NewUserRepository(backend.SQL),
		ResetTokens: NewResetTokenRepository(backend.SQL),
	}
}
