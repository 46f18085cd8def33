package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Invitation InvitationConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// AppOrigin is the public web origin used to build signup links.
	AppOrigin string `env:"APP_ORIGIN" envDefault:"http://localhost:3000"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"truetone"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`

	// ConnectRetries and RetryWait cover a database that starts after the API.
	ConnectRetries int           `env:"DB_CONNECT_RETRIES" envDefault:"5"`
	RetryWait      time.Duration `env:"DB_CONNECT_RETRY_WAIT" envDefault:"2s"`

	// AutoMigrate applies the embedded schema on startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./keys/private.pem"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./keys/public.pem"`
	ExpirationMins int    `env:"JWT_EXPIRATION_MINS" envDefault:"15"`
	Issuer         string `env:"JWT_ISSUER" envDefault:"api.truetone.reviews"`
}

// StorageConfig holds photo blob store settings
type StorageConfig struct {
	// Backend is "gcs" or "memory".
	Backend       string `env:"STORAGE_BACKEND" envDefault:"memory"`
	Bucket        string `env:"STORAGE_BUCKET"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
	MaxPhotoBytes int64  `env:"STORAGE_MAX_PHOTO_BYTES" envDefault:"10485760"`
}

// InvitationConfig holds invitation lifecycle settings
type InvitationConfig struct {
	TTL               time.Duration `env:"INVITATION_TTL" envDefault:"168h"`
	ReconcileInterval time.Duration `env:"INVITATION_RECONCILE_INTERVAL" envDefault:"15m"`
}

// RateLimitConfig holds per-IP limits for the credential endpoints
type RateLimitConfig struct {
	Rate  int           `env:"RATE_LIMIT_RATE" envDefault:"10"`
	Burst int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	Every time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if u, err := url.Parse(c.Server.AppOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("APP_ORIGIN must be an absolute URL, got '%s'", c.Server.AppOrigin))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.Database.ConnectRetries < 0 {
		errs = append(errs, errors.New("DB_CONNECT_RETRIES must not be negative"))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Storage validation
	switch c.Storage.Backend {
	case "memory":
		if c.IsProduction() {
			errs = append(errs, errors.New("STORAGE_BACKEND 'memory' is not allowed in production"))
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required when STORAGE_BACKEND is 'gcs'"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be 'gcs' or 'memory', got '%s'", c.Storage.Backend))
	}
	if c.Storage.MaxPhotoBytes <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_PHOTO_BYTES must be positive"))
	}

	// Invitation validation
	if c.Invitation.TTL <= 0 {
		errs = append(errs, errors.New("INVITATION_TTL must be positive"))
	}
	if c.Invitation.ReconcileInterval <= 0 {
		errs = append(errs, errors.New("INVITATION_RECONCILE_INTERVAL must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0 || c.RateLimit.Every <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE, RATE_LIMIT_BURST and RATE_LIMIT_WINDOW must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
