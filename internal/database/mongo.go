package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// MongoStore holds a MongoDB client and the database the credential store lives in
type MongoStore struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo connects to a mongodb:// or mongodb+srv:// URI and pings the primary
func ConnectMongo(ctx context.Context, cfg *config.AppConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBConnectionTimeout)
	defer cancel()

	log.Info().
		Str("driver", constants.DriverMongo).
		Str("uri", cfg.Database.RedactedURI()).
		Msg("Connecting to database")

	opts := options.Client().
		ApplyURI(cfg.Database.URI).
		SetConnectTimeout(constants.DBConnectionTimeout)
	if cfg.Database.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Database.MaxConns))
	}
	if cfg.Database.MinConns > 0 {
		opts.SetMinPoolSize(uint64(cfg.Database.MinConns))
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		if dcErr := client.Disconnect(context.Background()); dcErr != nil {
			log.Error().Err(dcErr).Msg("Failed to disconnect after ping failure")
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	name := cfg.Database.Name
	if name == "" {
		name = MongoDatabaseName(cfg.Database.URI)
	}

	log.Info().Str("database", name).Msg("Successfully connected to database")

	return &MongoStore{
		Client:   client,
		Database: client.Database(name),
	}, nil
}

// MongoDatabaseName returns the database named in the URI path, falling back to the default
func MongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return constants.DefaultMongoDB
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return constants.DefaultMongoDB
	}
	return name
}

// HealthCheck pings the deployment
func (m *MongoStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	if err := m.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client
func (m *MongoStore) Close() {
	if m == nil || m.Client == nil {
		return
	}
	log.Info().Msg("Closing database connection pool")

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBHealthCheckTimeout)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from database")
	}
}
