// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/digest"
	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables. It matches the
// AAC_* names the shelter package reads, so AAC_HOST works for both.
const EnvVarPrefix = "AAC"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: host, db, session_name, etc.
//   - Environment variables: AAC_HOST, AAC_DB, AAC_SESSION_NAME, etc.
//   - Command-line flags: --host, --db, --session_name, etc.
//
// Connection keys default to empty so shelter.Config.Resolve applies its own
// defaults; the service and the CLI then agree on them.
var appConfigKeys = []config.AppKey{
	{Name: "user", Default: "", Desc: "Document store username"},
	{Name: "pass", Default: "", Desc: "Document store password"},
	{Name: "host", Default: "", Desc: "Document store host (default: localhost)"},
	{Name: "port", Default: 0, Desc: "Document store port (default: 27017)"},
	{Name: "db", Default: "", Desc: "Database name (default: AAC)"},
	{Name: "col", Default: "", Desc: "Animal record collection (default: animals)"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "salt", Default: "", Desc: "Password digest salt (must not be the default in production)"},
	{Name: "digest", Default: "", Desc: "Password digest scheme: 'sha256-salt' or 'bcrypt'"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for login attempts"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_records", Default: "all", Desc: "Record write logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "Delete audit events older than this (0 disables pruning)"},
	{Name: "audit_viewers", Default: "", Desc: "Comma-separated usernames allowed to read /audit (empty disables it)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, AAC_* for app) and flags, merged
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoUser:        appValues.String("user"),
		MongoPassword:    appValues.String("pass"),
		MongoHost:        appValues.String("host"),
		MongoPort:        appValues.Int("port"),
		MongoDatabase:    appValues.String("db"),
		AnimalCollection: appValues.String("col"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		DigestSalt:   appValues.String("salt"),
		DigestScheme: appValues.String("digest"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		CSRFKey: appValues.String("csrf_key"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogRecords: appValues.String("audit_log_records"),
		AuditRetention:  appValues.Duration("audit_retention", 90*24*time.Hour),
		AuditViewers:    splitList(appValues.String("audit_viewers")),
	}

	return coreCfg, appCfg, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ShelterConfig maps the app config onto the shelter client config.
func (c AppConfig) ShelterConfig() shelter.Config {
	return shelter.Config{
		User:         c.MongoUser,
		Password:     c.MongoPassword,
		Host:         c.MongoHost,
		Port:         c.MongoPort,
		Database:     c.MongoDatabase,
		Collection:   c.AnimalCollection,
		Salt:         c.DigestSalt,
		DigestScheme: c.DigestScheme,
		MaxPoolSize:  c.MongoMaxPoolSize,
		MinPoolSize:  c.MongoMinPoolSize,
	}
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Production refuses the built-in salt and signing keys.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	sc, err := appCfg.ShelterConfig().Resolve()
	if err != nil {
		logger.Error("invalid document store config", zap.Error(err))
		return err
	}
	if err := wafflemongo.ValidateURI(sc.URI()); err != nil {
		logger.Error("invalid MongoDB URI", zap.String("target", sc.Target()), zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := digest.New(sc.DigestScheme, sc.Salt); err != nil {
		return err
	}

	for name, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_records": appCfg.AuditLogRecords,
	} {
		if !auditlog.ValidDestination(v) {
			return fmt.Errorf("%s: unknown destination %q (want all, db, log or off)", name, v)
		}
	}

	if appCfg.RateLimitEnabled && appCfg.RateLimitLoginAttempts <= 0 {
		return fmt.Errorf("rate_limit_login_attempts must be positive, got %d", appCfg.RateLimitLoginAttempts)
	}
	if appCfg.RateLimitEnabled {
		for name, d := range map[string]time.Duration{
			"rate_limit_login_window":  appCfg.RateLimitLoginWindow,
			"rate_limit_login_lockout": appCfg.RateLimitLoginLockout,
		} {
			if d <= 0 || d > indexes.RateLimitTTL {
				return fmt.Errorf("%s must be between 0 and %s, got %s", name, indexes.RateLimitTTL, d)
			}
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if sc.DigestScheme == digest.SchemeSaltedSHA256 && sc.UsesDefaultSalt() {
			return fmt.Errorf("salt: the built-in default salt is not allowed in production")
		}
		if auth.IsDefaultKey(appCfg.SessionKey) || len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("session_key: a strong key of at least 32 characters is required in production")
		}
		if auth.IsDefaultKey(appCfg.CSRFKey) || len(appCfg.CSRFKey) < 32 {
			return fmt.Errorf("csrf_key: a strong key of at least 32 characters is required in production")
		}
	} else if sc.UsesDefaultSalt() {
		logger.Warn("using the built-in password digest salt; set AAC_SALT before production")
	}

	return nil
}
