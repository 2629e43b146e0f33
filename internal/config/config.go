// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	customValidation "github.com/fieldsrv/guardpost/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// DBDriver is the database driver for durable intrusion events
	// ("postgres" or "mysql"). Empty disables SQL persistence.
	DBDriver string
	// DBConnectionString is the connection string for the database.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// MasterKeyHex is the optional 64-hex-char (32-byte) master key. When empty
	// a fresh key is generated at startup and logged once.
	MasterKeyHex string
	// KMSKeyURI is an optional gocloud.dev/secrets keeper URI used to unwrap
	// the master key (e.g., "gcpkms://...", "hashivault://...").
	KMSKeyURI string
	// MasterKeyWrapped is the base64 master key ciphertext unwrapped through
	// the KMS keeper when KMSKeyURI is set.
	MasterKeyWrapped string
	// KeyRotationPeriod is how long a key stays primary before rotation archives it.
	KeyRotationPeriod time.Duration
	// KeyRotationCheckInterval is how often the rotation worker scans for expired keys.
	KeyRotationCheckInterval time.Duration
	// EncryptionAlgorithm selects the AEAD cipher ("aes-gcm" or "chacha20-poly1305").
	EncryptionAlgorithm string

	// DetectionReportingThreshold is the minimum anomaly score that creates an event.
	DetectionReportingThreshold int
	// DetectionBlockingThreshold is the minimum anomaly score that blocks the source address.
	DetectionBlockingThreshold int
	// DetectionSensitivity tunes the rapid-request limit (1-10, default 5).
	DetectionSensitivity int
	// DetectionAutomaticBlocking enables adding addresses to the blocked set.
	DetectionAutomaticBlocking bool
	// DetectionGeoAnomaly enables the geolocation anomaly signal.
	DetectionGeoAnomaly bool
	// DetectionProfileLearning is "always" (update profiles on every
	// authenticated request) or "trusted-only" (only on non-anomalous ones).
	DetectionProfileLearning string
	// DetectionEventLogCapacity bounds the in-memory intrusion event log.
	DetectionEventLogCapacity int
	// DetectionSuspicionHalfLife controls decay of per-address suspicion totals.
	DetectionSuspicionHalfLife time.Duration

	// AdminTokenHash is the Argon2id hash of the admin API bearer token.
	// Empty disables admin authentication.
	AdminTokenHash string

	// RateLimitEnabled indicates whether rate limiting for admin endpoints is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per source address.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for admin endpoint rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Database configuration (optional durable event store)
		DBDriver:             env.GetString("DB_DRIVER", ""),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Key management
		MasterKeyHex:             env.GetString("GUARDPOST_MASTER_KEY", ""),
		KMSKeyURI:                env.GetString("KMS_KEY_URI", ""),
		MasterKeyWrapped:         env.GetString("GUARDPOST_MASTER_KEY_WRAPPED", ""),
		KeyRotationPeriod:        env.GetDuration("KEY_ROTATION_PERIOD_HOURS", 168, time.Hour),
		KeyRotationCheckInterval: env.GetDuration("KEY_ROTATION_CHECK_MINUTES", 60, time.Minute),
		EncryptionAlgorithm:      env.GetString("ENCRYPTION_ALGORITHM", "aes-gcm"),

		// Intrusion detection
		DetectionReportingThreshold: env.GetInt("DETECTION_REPORTING_THRESHOLD", 75),
		DetectionBlockingThreshold:  env.GetInt("DETECTION_BLOCKING_THRESHOLD", 85),
		DetectionSensitivity:        env.GetInt("DETECTION_SENSITIVITY", 5),
		DetectionAutomaticBlocking:  env.GetBool("DETECTION_AUTOMATIC_BLOCKING", true),
		DetectionGeoAnomaly:         env.GetBool("DETECTION_GEO_ANOMALY", true),
		DetectionProfileLearning:    env.GetString("DETECTION_PROFILE_LEARNING", "always"),
		DetectionEventLogCapacity:   env.GetInt("DETECTION_EVENT_LOG_CAPACITY", 10000),
		DetectionSuspicionHalfLife:  env.GetDuration("DETECTION_SUSPICION_HALF_LIFE_HOURS", 24, time.Hour),

		// Admin API authentication
		AdminTokenHash: env.GetString("ADMIN_TOKEN_HASH", ""),

		// Rate Limiting (admin endpoints)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "guardpost"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate checks the structurally constrained fields so a malformed
// environment fails at startup instead of at first use.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.MasterKeyHex, customValidation.HexKey32),
		validation.Field(&c.KMSKeyURI, customValidation.NoWhitespace),
		validation.Field(&c.MasterKeyWrapped, customValidation.NoWhitespace, customValidation.Base64),
		validation.Field(&c.AdminTokenHash, customValidation.NoWhitespace),
	)
	return customValidation.WrapValidationError(err)
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
