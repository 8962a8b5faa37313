package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/dalemusser/stratashelter/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session error classification for logging and monitoring.
type sessionErrorType int

const (
	sessionErrUnknown   sessionErrorType = iota
	sessionErrExpired                    // timestamp expired - normal
	sessionErrTampered                   // MAC invalid - potential attack
	sessionErrCorrupted                  // decode/decrypt failed - corruption or key rotation
	sessionErrBackend                    // store/backend failure
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	loggedInKey  = "logged_in"
	usernameKey  = "username"
	sessionIDKey = "session_id"

	// DefaultSessionName is the cookie name used when none is configured.
	DefaultSessionName = "shelter-session"
)

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager keeps the login state (logged_in + username) in a signed
// cookie and gates protected routes on it.
type SessionManager struct {
	store  *sessions.CookieStore
	logger *zap.Logger
	name   string
}

// NewSessionManager creates a SessionManager.
//
// Parameters:
//   - sessionKey: signing key for cookies (must be ≥32 chars in production)
//   - name: session cookie name (DefaultSessionName if empty)
//   - domain: cookie domain (empty means current host)
//   - maxAge: session cookie lifetime
//   - secure: if true, cookies are Secure and weak keys are rejected
//   - logger: zap logger for session error logging
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	isWeak := len(sessionKey) < 32 || IsDefaultKey(sessionKey)
	if secure && isWeak {
		return nil, &SessionConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	} else if isWeak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", IsDefaultKey(sessionKey)))
	}

	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &SessionManager{
		store:  store,
		logger: logger,
		name:   name,
	}, nil
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string {
	return e.Message
}

// SessionName returns the configured session cookie name.
func (sm *SessionManager) SessionName() string {
	return sm.name
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in user carried in the request context.
type SessionUser struct {
	Username  string
	SessionID string // random per-login id, used to correlate audit events
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// State returns the login state for the request.
func State(r *http.Request) models.LoginState {
	if u, ok := CurrentUser(r); ok {
		return models.LoginState{LoggedIn: true, Username: u.Username}
	}
	return models.LoginState{}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the signed-in user into the request context.
// Unreadable cookies are logged by kind and treated as signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			errType, errCategory := classifySessionError(err)
			switch errType {
			case sessionErrExpired:
				sm.logger.Debug("session expired, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			case sessionErrTampered:
				sm.logger.Warn("session MAC validation failed (possible tampering)",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("user_agent", r.UserAgent()))
			case sessionErrCorrupted:
				sm.logger.Info("session decode failed, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			default:
				sm.logger.Warn("session error, starting fresh session",
					zap.Error(err),
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			}
		}

		if loggedIn, _ := sess.Values[loggedInKey].(bool); loggedIn {
			if username := getString(sess, usernameKey); username != "" {
				r = withUser(r, &SessionUser{
					Username:  username,
					SessionID: getString(sess, sessionIDKey),
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a signed-in user with a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		jsonutil.Unauthorized(w, "Please log in to access the dashboard features.")
	})
}

// RequireUser returns middleware that admits only the named users. Anyone
// not signed in gets a 401; a signed-in user not on the list gets a 403.
// An empty list admits nobody.
func (sm *SessionManager) RequireUser(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonutil.Unauthorized(w, "Please log in to access the dashboard features.")
				return
			}
			if _, allowed := set[u.Username]; !allowed {
				sm.logger.Warn("access denied",
					zap.String("username", u.Username),
					zap.String("path", r.URL.Path))
				jsonutil.Forbidden(w, "You do not have access to this page.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session lifecycle                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateSession marks the session as logged in for username and returns the
// new session id.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, username string) (string, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}

	id := uuid.New().String()
	sess.Values[loggedInKey] = true
	sess.Values[usernameKey] = username
	sess.Values[sessionIDKey] = id

	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// DestroySession resets the session to the logged-out state.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}

	sess.Values[loggedInKey] = false
	delete(sess.Values, usernameKey)
	delete(sess.Values, sessionIDKey)

	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a SessionUser into the request context for testing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

// IsDefaultKey reports whether a signing key looks like a placeholder value.
func IsDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifySessionError categorizes a session/cookie error for logging.
func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}

	errStr := strings.ToLower(err.Error())

	if scErr, ok := err.(securecookie.Error); ok {
		if !scErr.IsDecode() {
			return sessionErrBackend, "backend"
		}

		switch {
		case strings.Contains(errStr, "expired timestamp"):
			return sessionErrExpired, "expired"
		case strings.Contains(errStr, "mac") || strings.Contains(errStr, "hash"):
			return sessionErrTampered, "mac_invalid"
		case strings.Contains(errStr, "decrypt"):
			return sessionErrCorrupted, "decrypt_failed"
		case strings.Contains(errStr, "base64") || strings.Contains(errStr, "decode"):
			return sessionErrCorrupted, "decode_failed"
		default:
			return sessionErrCorrupted, "decode_other"
		}
	}

	return sessionErrBackend, "unknown"
}
