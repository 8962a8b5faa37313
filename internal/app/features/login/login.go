// Package login serves sign-in and the login-state probe the dashboard uses
// to decide whether to show protected content.
package login

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/store/ratelimit"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// MsgLockedOut is returned while a username is locked after repeated failures.
const MsgLockedOut = "Too many failed login attempts. Try again later."

// Authenticator is satisfied by *shelter.Client.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (shelter.Outcome, error)
}

// Handler provides login handlers.
type Handler struct {
	authn          Authenticator
	sessionMgr     *auth.SessionManager
	rateLimitStore *ratelimit.Store // nil if rate limiting disabled
	errLog         *errorsfeature.ErrorLogger
	auditLogger    *auditlog.Logger
	logger         *zap.Logger
}

// NewHandler creates a new login Handler.
// rateLimitStore and auditLogger can be nil.
func NewHandler(
	authn Authenticator,
	sessionMgr *auth.SessionManager,
	rateLimitStore *ratelimit.Store,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authn:          authn,
		sessionMgr:     sessionMgr,
		rateLimitStore: rateLimitStore,
		errLog:         errLog,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogin)
	r.Get("/state", h.handleState)
	return r
}

type input struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StateResponse is the login state plus the CSRF token for the next
// state-changing request.
type StateResponse struct {
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in input
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Username == "" || in.Password == "" {
		jsonutil.JSON(w, http.StatusBadRequest, shelter.Outcome{Message: shelter.MsgCredentialsRequired})
		return
	}

	ctx := r.Context()
	if h.rateLimitStore != nil {
		if st := h.rateLimitStore.Check(ctx, in.Username); !st.Allowed {
			h.auditLogger.LoginLockedOut(r, in.Username)
			jsonutil.JSON(w, http.StatusTooManyRequests, shelter.Outcome{Message: MsgLockedOut})
			return
		}
	}

	out, err := h.authn.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}

	if !out.OK {
		remaining := -1
		if h.rateLimitStore != nil {
			st := h.rateLimitStore.Fail(ctx, in.Username)
			remaining = st.Remaining
			if !st.Allowed {
				h.logger.Warn("username locked after failed logins",
					zap.String("username", in.Username),
					zap.Timep("locked_until", st.LockedUntil))
			}
		}
		h.auditLogger.LoginFailed(r, in.Username, out.Message, remaining)
		jsonutil.JSON(w, http.StatusUnauthorized, out)
		return
	}

	if h.rateLimitStore != nil {
		if err := h.rateLimitStore.Reset(ctx, in.Username); err != nil {
			h.logger.Warn("failed to clear login rate limit", zap.Error(err))
		}
	}

	sessionID, err := h.sessionMgr.CreateSession(w, r, in.Username)
	if err != nil {
		h.errLog.Log(r, "failed to save session", err)
		jsonutil.InternalError(w, "could not start a session")
		return
	}
	h.auditLogger.LoginSucceeded(r, in.Username, sessionID)
	jsonutil.OK(w, out)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st := auth.State(r)
	jsonutil.OK(w, StateResponse{
		LoggedIn:  st.LoggedIn,
		Username:  st.Username,
		CSRFToken: csrf.Token(r),
	})
}
