package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/authgate/internal/constants"
)

// Startup configuration errors. Either one is fatal for the process.
var (
	ErrMissingDatabaseURI = errors.New("database URI must be set (DATABASE_URI or MONGO_URI)")
	ErrMissingJWTSecret   = errors.New("JWT secret must be set (JWT_SECRET)")
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App          AppSettings      `yaml:"app"`
	Database     DatabaseSettings `yaml:"database"`
	Server       ServerSettings   `yaml:"server"`
	JWT          JWTSettings      `yaml:"jwt"`
	Mail         MailSettings     `yaml:"mail"`
	Frontend     FrontendSettings `yaml:"frontend"`
	Logging      LoggingSettings  `yaml:"logging"`
	CORS         CORSSettings     `yaml:"cors"`
	PasswordHash HashSettings     `yaml:"password_hash"`
	Reset        ResetSettings    `yaml:"reset"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains the credential store connection settings.
// The URI scheme selects the backend: postgres, mysql or mongodb.
type DatabaseSettings struct {
	URI                 string        `yaml:"uri" env:"DATABASE_URI,MONGO_URI,DATABASE_URL"`
	Name                string        `yaml:"name" env:"DB_NAME"`
	MaxConns            int           `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns            int           `yaml:"min_conns" env:"DB_MIN_CONNS"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval" env:"DB_MAINTENANCE_INTERVAL"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"PORT,SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// JWTSettings contains token signing settings
type JWTSettings struct {
	Secret        string        `yaml:"secret" env:"JWT_SECRET"`
	SessionExpiry time.Duration `yaml:"session_expiry" env:"JWT_SESSION_EXPIRY"`
	ResetExpiry   time.Duration `yaml:"reset_expiry" env:"JWT_RESET_EXPIRY"`
	Issuer        string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// MailSettings contains outgoing mail settings. When SendGridAPIKey is set and
// Transport is empty the SendGrid transport is used, otherwise SMTP.
type MailSettings struct {
	Transport      string        `yaml:"transport" env:"EMAIL_TRANSPORT"`
	Host           string        `yaml:"host" env:"EMAIL_HOST"`
	Port           int           `yaml:"port" env:"EMAIL_PORT"`
	Secure         bool          `yaml:"secure" env:"EMAIL_SECURE"`
	User           string        `yaml:"user" env:"EMAIL_USER"`
	Password       string        `yaml:"password" env:"EMAIL_PASSWORD"`
	From           string        `yaml:"from" env:"EMAIL_FROM"`
	SendGridAPIKey string        `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	VerifyTimeout  time.Duration `yaml:"verify_timeout" env:"EMAIL_VERIFY_TIMEOUT"`
	SendTimeout    time.Duration `yaml:"send_timeout" env:"EMAIL_SEND_TIMEOUT"`
}

// FrontendSettings contains the public frontend location used in emailed links
type FrontendSettings struct {
	URL string `yaml:"url" env:"FRONTEND_URL"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains password hashing settings
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// ResetSettings controls the password reset flow.
// By default a reset token can be used once; AllowReplay lifts that restriction
// so the token stays valid until it expires.
type ResetSettings struct {
	AllowReplay bool `yaml:"allow_replay" env:"RESET_ALLOW_REPLAY"`
}

// Driver returns the credential store driver implied by the URI scheme
func (dbs *DatabaseSettings) Driver() (string, error) {
	u, err := url.Parse(dbs.URI)
	if err != nil {
		return "", fmt.Errorf("invalid database URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case constants.SchemePostgres, constants.SchemePostgresQL:
		return constants.DriverPostgres, nil
	case constants.SchemeMySQL:
		return constants.DriverMySQL, nil
	case constants.SchemeMongo, constants.SchemeMongoSRV:
		return constants.DriverMongo, nil
	default:
		return "", fmt.Errorf("unsupported database URI scheme %q", u.Scheme)
	}
}

// RedactedURI returns the database URI with any password masked
func (dbs *DatabaseSettings) RedactedURI() string {
	u, err := url.Parse(dbs.URI)
	if err != nil {
		return constants.LogRedactedValue
	}
	return u.Redacted()
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// TransportName returns the mail transport that will be used
func (ms *MailSettings) TransportName() string {
	if ms.Transport != "" {
		return strings.ToLower(ms.Transport)
	}
	if ms.SendGridAPIKey != "" {
		return constants.MailTransportSendGrid
	}
	return constants.MailTransportSMTP
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// Load loads the configuration from a config file and environment variables.
// The returned configuration is passed explicitly to every component that needs it.
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}

			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig(config)

	return config, nil
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}
	if config.Database.MaintenanceInterval == 0 {
		config.Database.MaintenanceInterval = constants.DBMaintenanceInterval
	}

	// JWT defaults
	if config.JWT.SessionExpiry == 0 {
		config.JWT.SessionExpiry = constants.DefaultSessionTokenExpiry
	}
	if config.JWT.ResetExpiry == 0 {
		config.JWT.ResetExpiry = constants.DefaultResetTokenExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	// Mail defaults
	if config.Mail.Port == 0 {
		// Implicit TLS listens on 465, STARTTLS on 587
		config.Mail.Port = constants.DefaultSMTPPort
		if config.Mail.Secure {
			config.Mail.Port = constants.DefaultSMTPSecurePort
		}
	}
	if config.Mail.From == "" {
		config.Mail.From = config.Mail.User
	}
	if config.Mail.VerifyTimeout == 0 {
		config.Mail.VerifyTimeout = constants.DefaultMailVerifyTimeout
	}
	if config.Mail.SendTimeout == 0 {
		config.Mail.SendTimeout = constants.DefaultMailSendTimeout
	}

	if config.Frontend.URL == "" {
		config.Frontend.URL = constants.DefaultFrontendURL
	}
	config.Frontend.URL = strings.TrimRight(config.Frontend.URL, "/")

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	// CORS defaults
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	// Password hash defaults
	if config.PasswordHash.Memory == 0 {
		// Lower for development, higher for production
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.Database.URI == "" {
		return ErrMissingDatabaseURI
	}
	if _, err := config.Database.Driver(); err != nil {
		return err
	}

	if config.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if config.App.IsProduction() && config.JWT.Secret == "changeme" {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	switch config.Mail.TransportName() {
	case constants.MailTransportSMTP, constants.MailTransportSendGrid:
	default:
		return fmt.Errorf("unsupported mail transport: %s", config.Mail.Transport)
	}

	if _, err := url.ParseRequestURI(config.Frontend.URL); err != nil {
		return fmt.Errorf("invalid frontend URL %q: %w", config.Frontend.URL, err)
	}

	// Validate log level
	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	driver, _ := config.Database.Driver()

	event := log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_driver", driver).
		Str("db_uri", config.Database.RedactedURI()).
		Str("mail_transport", config.Mail.TransportName()).
		Str("frontend_url", config.Frontend.URL).
		Bool("reset_allow_replay", config.Reset.AllowReplay).
		Str("log_level", config.Logging.Level)

	if config.Mail.TransportName() == constants.MailTransportSMTP && config.Mail.Host == "" {
		log.Warn().Msg("EMAIL_HOST is not set; password reset emails will fail")
	}

	event.Msg("Configuration loaded")
}
