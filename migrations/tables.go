package migrations

import (
	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// createUsersTable creates the users table.
// Ids are UUID strings generated by the application.
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   constants.TableUsers,
		Statements: func(string) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS users (
					id VARCHAR(36) PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					email VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT uq_users_email UNIQUE (email)
				)
			`}
		},
	}
}

// createPasswordResetTokensTable creates the ledger of consumed reset tokens.
// The jti primary key makes consuming a token an atomic insert-if-absent.
func createPasswordResetTokensTable() Migration {
	return Migration{
		Name:        "create_password_reset_tokens_table",
		Description: "Creates the password_reset_tokens table",
		TableName:   constants.TablePasswordResetTokens,
		Statements: func(driver string) []string {
			if driver == constants.DriverMySQL {
				return []string{`
					CREATE TABLE IF NOT EXISTS password_reset_tokens (
						jti VARCHAR(64) PRIMARY KEY,
						user_id VARCHAR(36) NOT NULL,
						expires_at TIMESTAMP NOT NULL,
						consumed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						INDEX idx_password_reset_tokens_expires_at (expires_at),
						CONSTRAINT fk_password_reset_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
					)
				`}
			}
			return []string{
				`
					CREATE TABLE IF NOT EXISTS password_reset_tokens (
						jti VARCHAR(64) PRIMARY KEY,
						user_id VARCHAR(36) NOT NULL,
						expires_at TIMESTAMP NOT NULL,
						consumed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						CONSTRAINT fk_password_reset_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
					)
				`,
				`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_expires_at ON password_reset_tokens(expires_at)`,
			}
		},
	}
}
