// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, timeouts); everything
// here is specific to the shelter service.
type AppConfig struct {
	// Document store connection. Empty fields fall back to the AAC_*
	// variables and then to the shelter package defaults.
	MongoUser        string
	MongoPassword    string
	MongoHost        string
	MongoPort        int
	MongoDatabase    string
	AnimalCollection string
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Password digest
	DigestSalt   string // deployment-wide salt for the sha256-salt scheme
	DigestScheme string // "sha256-salt" or "bcrypt"

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: shelter-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// Rate limiting configuration
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth    string        // register, login, logout
	AuditLogRecords string        // animal record writes
	AuditRetention  time.Duration // events older than this are pruned daily; 0 keeps everything
	AuditViewers    []string      // usernames allowed to read /audit; empty means nobody
}
