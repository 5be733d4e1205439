// internal/database/db.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // Import Postgres driver
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/config"
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// ErrUnsupportedDriver is returned when the database URI scheme is not a SQL backend
var ErrUnsupportedDriver = errors.New("unsupported SQL driver")

// Pool represents a database connection pool
type Pool struct {
	*sql.DB
	// Driver is the database/sql driver name, used to pick the placeholder style
	Driver string
}

// NewPool wraps an existing *sql.DB
func NewPool(db *sql.DB, driver string) *Pool {
	return &Pool{DB: db, Driver: driver}
}

// Connect creates a new SQL connection pool for a postgres:// or mysql:// URI
func Connect(ctx context.Context, cfg *config.AppConfig) (*Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBConnectionTimeout)
	defer cancel()

	driver, err := cfg.Database.Driver()
	if err != nil {
		return nil, err
	}

	dsn, err := DataSourceName(driver, cfg.Database.URI)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("driver", driver).
		Str("uri", cfg.Database.RedactedURI()).
		Msg("Connecting to database")

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBConnMaxIdleTime)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close database after ping failure")
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Successfully connected to database")

	return NewPool(db, driver), nil
}

// DataSourceName converts a database URI into the DSN expected by the driver.
// lib/pq accepts URLs directly, go-sql-driver/mysql needs its own DSN format.
func DataSourceName(driver, uri string) (string, error) {
	switch driver {
	case constants.DriverPostgres:
		return uri, nil
	case constants.DriverMySQL:
		return mysqlDSN(uri)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

func mysqlDSN(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mysql URI: %w", err)
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = u.Host
	if u.Port() == "" {
		mc.Addr = u.Hostname() + ":3306"
	}
	mc.DBName = strings.TrimPrefix(u.Path, "/")
	mc.ParseTime = true
	if u.User != nil {
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
	}

	params := u.Query()
	if len(params) > 0 {
		mc.Params = make(map[string]string, len(params))
		for key := range params {
			if key == "parseTime" {
				mc.ParseTime, _ = strconv.ParseBool(params.Get(key))
				continue
			}
			mc.Params[key] = params.Get(key)
		}
	}

	return mc.FormatDSN(), nil
}

// Rebind rewrites "?" placeholders into the "$n" form when the pool talks to Postgres.
// Queries in this codebase never contain a literal question mark.
func (p *Pool) Rebind(query string) string {
	if p.Driver != constants.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Close closes the database connection pool
func (p *Pool) Close() {
	if p != nil && p.DB != nil {
		log.Info().Msg("Closing database connection pool")
		if err := p.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection pool")
		}
	}
}

// Transaction executes a function within a transaction
func (p *Pool) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	// Start a transaction
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Handle panics to ensure proper rollback
	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database connection
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Run a simple query to verify database functionality
	var result int
	if err := p.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("database returned unexpected result: %d", result)
	}

	return nil
}
