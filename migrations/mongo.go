package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// MongoIndexes returns the indexes each collection needs.
// The expires_at index on the reset ledger is a TTL index, so the server
// removes consumed tokens once they could no longer verify anyway.
func MongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		constants.TableUsers: {
			{
				Keys:    bson.D{{Key: constants.ColumnEmail, Value: 1}},
				Options: options.Index().SetName("uq_users_email").SetUnique(true),
			},
		},
		constants.TablePasswordResetTokens: {
			{
				Keys:    bson.D{{Key: constants.ColumnExpiresAt, Value: 1}},
				Options: options.Index().SetName("ttl_password_reset_tokens_expires_at").SetExpireAfterSeconds(0),
			},
			{
				Keys:    bson.D{{Key: constants.ColumnUserID, Value: 1}},
				Options: options.Index().SetName("idx_password_reset_tokens_user_id"),
			},
		},
	}
}

// EnsureMongoIndexes creates any missing index. CreateMany is a no-op for
// indexes that already exist with the same definition.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	log.Info().Str("database", db.Name()).Msg("Ensuring MongoDB indexes")
	startTime := time.Now()

	for collection, indexes := range MongoIndexes() {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		log.Debug().
			Str("collection", collection).
			Strs("indexes", names).
			Msg("Indexes ensured")
	}

	log.Info().Dur("duration", time.Since(startTime)).Msg("MongoDB indexes ensured")
	return nil
}
