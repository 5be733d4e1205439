package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/database"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// ResetTokenRepository is the ledger of consumed password reset tokens
type ResetTokenRepository interface {
	// MarkConsumed records the token as used. It returns false, without error,
	// when the token had already been consumed.
	MarkConsumed(ctx context.Context, token *models.ConsumedResetToken) (bool, error)

	// Release removes a consumed marker so the token can be presented again
	Release(ctx context.Context, jti string) error

	// DeleteExpired removes markers for tokens that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLResetTokenRepository is the Postgres and MySQL implementation of ResetTokenRepository
type SQLResetTokenRepository struct {
	db *database.Pool
}

// NewResetTokenRepository creates a new SQL backed ResetTokenRepository
func NewResetTokenRepository(db *database.Pool) ResetTokenRepository {
	return &SQLResetTokenRepository{db: db}
}

// MarkConsumed inserts the jti. The primary key makes the check and the write a single atomic step.
func (r *SQLResetTokenRepository) MarkConsumed(ctx context.Context, token *models.ConsumedResetToken) (bool, error) {
	startTime := time.Now()

	if token.ConsumedAt.IsZero() {
		token.ConsumedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
        INSERT INTO password_reset_tokens (jti, user_id, expires_at, consumed_at)
        VALUES (?, ?, ?, ?)
    `)

	_, err := r.db.ExecContext(ctx, query, token.JTI, token.UserID, token.ExpiresAt.UTC(), token.ConsumedAt)

	utils.LogDBQuery(
		query,
		[]interface{}{token.JTI, token.UserID, token.ExpiresAt, token.ConsumedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if utils.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to mark reset token consumed: %w", err)
	}

	return true, nil
}

// Release deletes the consumed marker for a jti
func (r *SQLResetTokenRepository) Release(ctx context.Context, jti string) error {
	startTime := time.Now()

	query := r.db.Rebind(`DELETE FROM password_reset_tokens WHERE jti = ?`)
	_, err := r.db.ExecContext(ctx, query, jti)

	utils.LogDBQuery(query, []interface{}{jti}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to release reset token: %w", err)
	}
	return nil
}

// DeleteExpired removes markers whose token can no longer verify
func (r *SQLResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(`DELETE FROM password_reset_tokens WHERE expires_at < ?`)
	result, err := r.db.ExecContext(ctx, query, now.UTC())

	utils.LogDBQuery(query, []interface{}{now}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if count > 0 {
		log.Info().
			Int64("count", count).
			Str("table", constants.TablePasswordResetTokens).
			Msg("Deleted expired reset token markers")
	}

	return count, nil
}
