// Package database provides the connections behind the credential store.
// A SQL pool serves Postgres and MySQL URIs, a MongoStore serves MongoDB URIs.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// SQLDatabase defines the subset of sql.DB used by the application.
// Repositories depend on it so tests can substitute go-sqlmock.
type SQLDatabase interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	SetConnMaxIdleTime(d time.Duration)
	SetConnMaxLifetime(d time.Duration)
	SetMaxIdleConns(n int)
	SetMaxOpenConns(n int)
}

// Ensure sql.DB implements SQLDatabase.
var _ SQLDatabase = (*sql.DB)(nil)

// HealthChecker is implemented by every backend connection
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Backend is the open connection to the credential store.
// Exactly one of SQL and Mongo is set.
type Backend struct {
	Driver string
	SQL    *Pool
	Mongo  *MongoStore
}

// Open connects to the backend selected by the scheme of the database URI
func Open(ctx context.Context, cfg *config.AppConfig) (*Backend, error) {
	driver, err := cfg.Database.Driver()
	if err != nil {
		return nil, err
	}

	if driver == constants.DriverMongo {
		store, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{Driver: driver, Mongo: store}, nil
	}

	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{Driver: driver, SQL: pool}, nil
}

// HealthCheck checks whichever connection is open
func (b *Backend) HealthCheck(ctx context.Context) error {
	if b.Mongo != nil {
		return b.Mongo.HealthCheck(ctx)
	}
	return b.SQL.HealthCheck(ctx)
}

// Close closes whichever connection is open
func (b *Backend) Close() {
	if b == nil {
		return
	}
	if b.Mongo != nil {
		b.Mongo.Close()
	}
	if b.SQL != nil {
		b.SQL.Close()
	}
}
