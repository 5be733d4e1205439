package server

import (
	"context"
)

// ServerDBHealthChecker defines the interface for the credential store
// connection held by the server. database.Backend implements it; tests
// substitute an in-memory fake.
type ServerDBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	//
	// Parameters:
	//   - ctx: Context for the health check operation
	//
	// Returns:
	//   - An error if the database is unreachable or unhealthy
	HealthCheck(ctx context.Context) error

	// Close terminates the database connection
	Close()
}

// ResetTokenPurger is the maintenance work run on every tick of the
// maintenance loop.
type ResetTokenPurger interface {
	// PurgeExpiredResetTokens deletes consumed reset token markers whose
	// tokens have expired
	//
	// Returns:
	//   - The number of markers removed
	//   - An error if the ledger could not be cleaned
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}
