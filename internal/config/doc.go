// Package config manages application configuration for the True Tone API.
//
// Configuration is read from environment variables through struct tags
// (caarlos0/env) and checked with Validate before the server starts:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS, app origin)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: access token signing settings
//   - StorageConfig: saxophone photo blob store
//   - InvitationConfig: invitation TTL and expiry reconciliation interval
//   - RateLimitConfig: per-IP limits for login and signup
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT        - HTTP server port (default: 8080)
//	APP_ORIGIN         - web origin used in signup links
//	DB_HOST, DB_PORT   - SurrealDB address
//	DB_NAMESPACE       - SurrealDB namespace (default: truetone)
//	STORAGE_BACKEND    - gcs or memory
//	STORAGE_BUCKET     - GCS bucket for photos
//	INVITATION_TTL     - invitation lifetime (default: 168h)
package config
