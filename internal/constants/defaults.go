// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used when the
// configuration does not provide a value. Changing these values alters how the
// service behaves out of the box, most notably token lifetimes and hashing cost.
package constants

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 5000

	// DefaultDBMaxConnections is the default maximum number of open database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default number of idle database connections kept open.
	DefaultDBMinConnections = 5

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"

	// DefaultFrontendURL is the base URL used to build password reset links.
	DefaultFrontendURL = "http://localhost:3000"

	// DefaultAppName is the application name reported in logs and health checks.
	DefaultAppName = "authgate"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
const MaxRequestBodySize = 1048576 // 1MB in bytes

// Default Password Hash Settings define the parameters for password hashing.
// These constants balance security and performance for password storage.
const (
	// DefaultPasswordHashMemory is the memory cost parameter for Argon2id hashing.
	DefaultPasswordHashMemory = 64 * 1024

	// DefaultPasswordHashIterations is the number of iterations for Argon2id hashing.
	DefaultPasswordHashIterations = 3

	// DefaultPasswordHashParallelism is the parallelism parameter for Argon2id hashing.
	DefaultPasswordHashParallelism = 2

	// DefaultPasswordHashSaltLength is the length in bytes of the random salt.
	DefaultPasswordHashSaltLength = 16

	// DefaultPasswordHashKeyLength is the length in bytes of the generated hash.
	DefaultPasswordHashKeyLength = 32

	// DevPasswordHashMemory is a reduced memory setting for development environments.
	DevPasswordHashMemory = 16 * 1024

	// DevPasswordHashIterations is a reduced iteration count for development environments.
	DevPasswordHashIterations = 1
)

// Token Constants define values related to bearer token handling.
const (
	// DefaultJWTIssuer is the issuer claim value for JWT tokens.
	DefaultJWTIssuer = "authgate"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "

	// TokenTypeBearer is the token type reported to clients on login.
	TokenTypeBearer = "Bearer"
)

// Token Purposes distinguish login tokens from password reset tokens.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

// Input Limits
const (
	MinPasswordLength = 6
	MaxUsernameLength = 50
	MaxEmailLength    = 255
)

// Mail Settings
const (
	DefaultSMTPPort       = 587
	DefaultSMTPSecurePort = 465
	ResetPasswordSubject  = "Reset Password"
	ResetLinkPath         = "/reset-password"
	ResetTokenQueryParam  = "token"
	MailTransportSMTP     = "smtp"
	MailTransportSendGrid = "sendgrid"
	MailTransportNone     = "none"
)

// Log Field Names used for request and authentication logging.
const (
	UserIDContextKey    = "user_id"
	UsernameContextKey  = "username"
	EmailContextKey     = "email"
	RequestIDContextKey = "request_id"
)
