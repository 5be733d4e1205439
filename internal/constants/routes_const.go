package constants

// Base Routes
const (
	APIBasePath = "/api"
	AuthPath    = "/api/auth"
	RootPath    = "/"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Authentication Routes, relative to AuthPath.
const (
	RegisterPath       = "/register"
	LoginPath          = "/login"
	ForgotPasswordPath = "/forgot-password"
	ResetPasswordPath  = "/reset-password"
	ProtectedPath      = "/protected"
	UsersPath          = "/users"
)
