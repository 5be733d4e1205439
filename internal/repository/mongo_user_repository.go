package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/models"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// userDocument is the stored shape of a user in MongoDB.
// The hash lives under "password", the field name used by existing deployments.
type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoUserRepository is the MongoDB implementation of UserRepository
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a UserRepository over the users collection
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		users: db.Collection(constants.TableUsers),
	}
}

// Create inserts the user and assigns the generated ObjectID
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := userDocument{
		ID:           bson.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.users.InsertOne(ctx, doc)

	utils.LogDBQuery(
		"users.insertOne",
		[]interface{}{doc.Username, doc.Email, constants.LogRedactedValue},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewDuplicateError("User", "email", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = doc.ID.Hex()

	log.Info().
		Str(constants.UserIDContextKey, user.ID).
		Str(constants.UsernameContextKey, user.Username).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by its ObjectID hex string
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.NewNotFoundError("User", id)
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, id)
}

// GetByEmail retrieves a user by normalized email
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return r.findOne(ctx, bson.D{{Key: constants.ColumnEmail, Value: email}}, fmt.Sprintf("email=%s", email))
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D, identifier string) (*models.User, error) {
	startTime := time.Now()

	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)

	utils.LogDBQuery("users.findOne", []interface{}{identifier}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("User", identifier)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return doc.toModel(), nil
}

// ExistsByEmail checks if a user with the given email exists
func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	startTime := time.Now()
	email = models.NormalizeEmail(email)

	count, err := r.users.CountDocuments(
		ctx,
		bson.D{{Key: constants.ColumnEmail, Value: email}},
		options.Count().SetLimit(1),
	)

	utils.LogDBQuery("users.countDocuments", []interface{}{email}, time.Since(startTime), err)

	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePassword replaces a user's password hash
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	startTime := time.Now()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return utils.NewNotFoundError("User", id)
	}

	result, err := r.users.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: constants.ColumnUpdatedAt, Value: time.Now().UTC()},
		}}},
	)

	utils.LogDBQuery("users.updateOne", []interface{}{id, constants.LogRedactedValue}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("User", id)
	}

	log.Info().
		Str(constants.UserIDContextKey, id).
		Msg("User password updated")

	return nil
}

// List returns every user ordered by creation time
func (r *MongoUserRepository) List(ctx context.Context) ([]*models.User, error) {
	startTime := time.Now()

	cursor, err := r.users.Find(
		ctx,
		bson.D{},
		options.Find().SetSort(bson.D{{Key: constants.ColumnCreatedAt, Value: 1}, {Key: "_id", Value: 1}}),
	)

	utils.LogDBQuery("users.find", nil, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}
