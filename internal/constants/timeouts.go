package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout   = 30 * time.Second
	DBQueryTimeout        = 15 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
	DBMaintenanceTimeout  = 5 * time.Minute
)

// Token Lifetimes
const (
	DefaultSessionTokenExpiry = 1 * time.Hour
	DefaultResetTokenExpiry   = 15 * time.Minute
)

// Mail Timeouts
const (
	DefaultMailVerifyTimeout = 10 * time.Second
	DefaultMailSendTimeout   = 30 * time.Second
)
