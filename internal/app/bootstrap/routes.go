// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	animalsfeature "github.com/dalemusser/stratashelter/internal/app/features/animals"
	auditlogfeature "github.com/dalemusser/stratashelter/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratashelter/internal/app/features/health"
	loginfeature "github.com/dalemusser/stratashelter/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratashelter/internal/app/features/logout"
	registerfeature "github.com/dalemusser/stratashelter/internal/app/features/register"
	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/store/ratelimit"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CSRFHeader carries the token from GET /login/state on every
// state-changing request.
const CSRFHeader = "X-CSRF-Token"

// BuildHandler constructs the root HTTP handler for the shelter service.
//
// Route map:
//
//	/register             POST  create a dashboard user
//	/login                POST  sign in; GET /login/state reports the session
//	/logout               POST  sign out
//	/animals              GET (?rescue=), POST /search, POST, PATCH, DELETE
//	/audit                GET  recent audit events (audit_viewers only)
//	/health, /ready, ...  probes
//
// Every route answers JSON. Non-GET requests need the CSRF header.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)

	auditStore := audit.New(deps.MongoDatabase)
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Records: appCfg.AuditLogRecords,
	})

	// nil when disabled; the login handler then skips throttling
	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request IDs are copied into audit events.
	r.Use(chimw.RequestID)
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS must run before anything that can reject a preflight.
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.Shelter, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	registerHandler := registerfeature.NewHandler(deps.Shelter, errLog, auditLogger, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	loginHandler := loginfeature.NewHandler(deps.Shelter, sessionMgr, rateLimitStore, errLog, auditLogger, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	animalsHandler := animalsfeature.NewHandler(deps.Shelter, errLog, auditLogger, logger)
	r.Mount("/animals", animalsfeature.Routes(animalsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(auditStore, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr, appCfg.AuditViewers))

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware protects every non-safe method. The dashboard reads the
// token from GET /login/state and echoes it in CSRFHeader.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("shelter_csrf"),
		csrf.RequestHeader(CSRFHeader),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	if !secure {
		// dev dashboards run on a different local port
		opts = append(opts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"localhost:8050",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
			"127.0.0.1:8050",
		}))
	}
	if appCfg.SessionDomain != "" {
		opts = append(opts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// without TLS the origin check must not assume https
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
		})
	}
}
