package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// consumedTokenDocument stores the jti as _id so inserts are unique per token
type consumedTokenDocument struct {
	JTI        string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	ExpiresAt  time.Time `bson:"expires_at"`
	ConsumedAt time.Time `bson:"consumed_at"`
}

// MongoResetTokenRepository is the MongoDB implementation of ResetTokenRepository
type MongoResetTokenRepository struct {
	tokens *mongo.Collection
}

// NewMongoResetTokenRepository creates a ResetTokenRepository over the password_reset_tokens collection
func NewMongoResetTokenRepository(db *mongo.Database) ResetTokenRepository {
	return &MongoResetTokenRepository{
		tokens: db.Collection(constants.TablePasswordResetTokens),
	}
}

// MarkConsumed inserts the jti, reporting false when it is already present
func (r *MongoResetTokenRepository) MarkConsumed(ctx context.Context, token *models.ConsumedResetToken) (bool, error) {
	startTime := time.Now()

	if token.ConsumedAt.IsZero() {
		token.ConsumedAt = time.Now().UTC()
	}

	_, err := r.tokens.InsertOne(ctx, consumedTokenDocument{
		JTI:        token.JTI,
		UserID:     token.UserID,
		ExpiresAt:  token.ExpiresAt.UTC(),
		ConsumedAt: token.ConsumedAt,
	})

	utils.LogDBQuery("password_reset_tokens.insertOne", []interface{}{token.JTI, token.UserID}, time.Since(startTime), err)

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to mark reset token consumed: %w", err)
	}
	return true, nil
}

// Release deletes the consumed marker for a jti
func (r *MongoResetTokenRepository) Release(ctx context.Context, jti string) error {
	startTime := time.Now()

	_, err := r.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: jti}})

	utils.LogDBQuery("password_reset_tokens.deleteOne", []interface{}{jti}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to release reset token: %w", err)
	}
	return nil
}

// DeleteExpired removes markers whose token can no longer verify.
// The TTL index does the same server side; this keeps the behavior
// identical to the SQL backends when the index monitor lags.
func (r *MongoResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	startTime := time.Now()

	result, err := r.tokens.DeleteMany(ctx, bson.D{
		{Key: constants.ColumnExpiresAt, Value: bson.D{{Key: "$lt", Value: now.UTC()}}},
	})

	utils.LogDBQuery("password_reset_tokens.deleteMany", []interface{}{now}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	if result.DeletedCount > 0 {
		log.Info().
			Int64("count", result.DeletedCount).
			Str("collection", constants.TablePasswordResetTokens).
			Msg("Deleted expired reset token markers")
	}
	return result.DeletedCount, nil
}
