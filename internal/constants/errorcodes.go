// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling, categorization,
// and messaging. User-facing messages are phrased so that clients can tell the
// failure apart (an expired reset link versus an invalid one) without exposing
// internal details such as query text or transport errors.
package constants

// Error Types define the categories of errors that can occur in the application.
// These are used for internal error classification and handling.
const (
	// ErrorNotFound indicates that a requested resource could not be found.
	ErrorNotFound = "resource not found"

	// ErrorUnauthorized indicates that authentication is required but was not provided.
	ErrorUnauthorized = "unauthorized access"

	// ErrorBadRequest indicates that the request was malformed or invalid.
	ErrorBadRequest = "invalid request"

	// ErrorInternalServer indicates an unexpected internal error.
	ErrorInternalServer = "internal server error"

	// ErrorValidation indicates that input validation failed.
	ErrorValidation = "validation error"

	// ErrorDuplicate indicates an attempt to create a resource that already exists.
	ErrorDuplicate = "duplicate resource"

	// ErrorInvalidCredentials indicates that authentication credentials are incorrect.
	ErrorInvalidCredentials = "invalid credentials"

	// ErrorExpiredToken indicates that a token has expired.
	ErrorExpiredToken = "expired token"

	// ErrorInvalidToken indicates that a token is malformed or invalid.
	ErrorInvalidToken = "invalid token"

	// ErrorDependency indicates that a downstream dependency (database, mail) failed.
	ErrorDependency = "dependency failure"
)

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgAuthRequired indicates that the user must authenticate to access the resource.
	MsgAuthRequired = "Authentication required"

	// MsgInvalidPassword indicates that the password did not match the account.
	MsgInvalidPassword = "Invalid credentials"

	// MsgUserNotFound indicates that no account exists for the given email or id.
	MsgUserNotFound = "User not found"

	// MsgUserExists indicates that registration used an email that is already taken.
	MsgUserExists = "User already exists"

	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgTokenExpired indicates that the presented token has expired.
	MsgTokenExpired = "Token has expired"

	// MsgInvalidToken indicates that the provided token is invalid.
	MsgInvalidToken = "Invalid token"

	// MsgResetTokenExpired indicates that a password reset link is past its lifetime.
	MsgResetTokenExpired = "Password reset token has expired"

	// MsgResetTokenInvalid indicates that a password reset link is invalid or already used.
	MsgResetTokenInvalid = "Invalid password reset token"

	// MsgRequestBodyTooLarge indicates that the request payload exceeds size limits.
	MsgRequestBodyTooLarge = "Request body too large"

	// MsgEmptyRequestBody indicates that a request body was expected but not provided.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON indicates that the request body contains invalid JSON.
	MsgMalformedJSON = "Request body contains malformed JSON"

	// MsgResourceNotFound indicates that the requested resource does not exist.
	MsgResourceNotFound = "The requested resource could not be found"

	// MsgRouteNotFound is returned for unknown routes.
	MsgRouteNotFound = "Route not found"

	// MsgMethodNotAllowed indicates that the HTTP method is not supported for the endpoint.
	MsgMethodNotAllowed = "Method not allowed"

	// MsgMailUnavailable indicates that the mail transport could not be reached.
	MsgMailUnavailable = "Email service is unavailable"

	// MsgMailSendFailed indicates that the mail transport rejected the message.
	MsgMailSendFailed = "Failed to send email"
)

// Success Messages
const (
	MsgUserRegistered    = "User registered successfully"
	MsgResetEmailSent    = "Password reset email sent successfully"
	MsgPasswordResetDone = "Password has been reset successfully"
	MsgProtectedGranted  = "Access granted"
	MsgServiceRunning    = "Auth API is running"
)

// Database Error Types define constants for recognizing and handling database-specific errors.
const (
	// DBErrorDuplicateKey is the PostgreSQL error message for unique constraint violations.
	DBErrorDuplicateKey = "duplicate key value violates unique constraint"

	// PGErrorDuplicateConstraint is the PostgreSQL error code for unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the PostgreSQL error code for foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// MySQLErrorDuplicateEntry is the MySQL error number for unique key violations.
	MySQLErrorDuplicateEntry = 1062
)

// Logger Constants define values used for structured logging.
const (
	// LogCategoryUser is the log category for user-related events.
	LogCategoryUser = "user"

	// LogCategoryAuth is the log category for authentication-related events.
	LogCategoryAuth = "auth"

	// LogEventLogin is the log event type for user login.
	LogEventLogin = "login"

	// LogEventRegister is the log event type for user registration.
	LogEventRegister = "register"

	// LogEventForgotPassword is the log event type for reset link requests.
	LogEventForgotPassword = "forgot_password"

	// LogEventResetPassword is the log event type for completed password resets.
	LogEventResetPassword = "reset_password"

	// LogRedactedValue is used to replace sensitive values in logs.
	LogRedactedValue = "[REDACTED]"
)
