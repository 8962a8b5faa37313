// Package logout ends the signed-in session.
package logout

import (
	"net/http"

	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/dalemusser/stratashelter/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Handler provides logout handlers.
type Handler struct {
	sessionMgr  *auth.SessionManager
	auditLogger *auditlog.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(sessionMgr *auth.SessionManager, auditLogger *auditlog.Logger) *Handler {
	return &Handler{
		sessionMgr:  sessionMgr,
		auditLogger: auditLogger,
	}
}

// Routes returns a chi.Router with logout routes mounted. Logging out while
// signed out is a no-op that still answers with the logged-out state.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogout)
	return r
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.Logout(r, user.Username)
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.OK(w, models.LoginState{})
}
