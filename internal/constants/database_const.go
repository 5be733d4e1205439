// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table, column and collection names shared
// by the SQL and MongoDB credential stores.
package constants

// Table Names define the names of database tables (and MongoDB collections).
const (
	// TableUsers is the name of the table storing user account information.
	TableUsers = "users"

	// TablePasswordResetTokens is the name of the table storing consumed reset token ids.
	TablePasswordResetTokens = "password_reset_tokens"
)

// Common Column Names define frequently used database column names.
const (
	ColumnID           = "id"
	ColumnUserID       = "user_id"
	ColumnUsername     = "username"
	ColumnEmail        = "email"
	ColumnPasswordHash = "password_hash"
	ColumnCreatedAt    = "created_at"
	ColumnUpdatedAt    = "updated_at"
	ColumnJTI          = "jti"
	ColumnExpiresAt    = "expires_at"
	ColumnConsumedAt   = "consumed_at"
)

// Database Drivers supported by the credential store, keyed by URI scheme.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongodb"
)

// URI Schemes accepted in the database connection URI.
const (
	SchemePostgres   = "postgres"
	SchemePostgresQL = "postgresql"
	SchemeMySQL      = "mysql"
	SchemeMongo      = "mongodb"
	SchemeMongoSRV   = "mongodb+srv"
	DefaultMongoDB   = "authgate"
)
