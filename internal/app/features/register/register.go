// Package register serves account creation.
package register

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Registrar is satisfied by *shelter.Client.
type Registrar interface {
	Register(ctx context.Context, username, password string) (shelter.Outcome, error)
}

// Handler provides the registration endpoint.
type Handler struct {
	registrar   Registrar
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new register Handler. auditLogger may be nil.
func NewHandler(registrar Registrar, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		registrar:   registrar,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Routes returns a chi.Router with the register route mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleRegister)
	return r
}

type input struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRegister answers with the Outcome. Registering does not sign the
// user in.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in input
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	out, err := h.registrar.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}
	h.auditLogger.Registered(r, in.Username, out.OK, out.Message)

	status := StatusFor(out)
	if status == http.StatusInternalServerError {
		// the cause stays in the log; callers get a generic message
		h.logger.Error("registration failed",
			zap.String("username", in.Username),
			zap.String("cause", out.Message))
		out = shelter.Outcome{OK: false, Message: MsgUnavailable}
	}
	jsonutil.JSON(w, status, out)
}

// MsgUnavailable replaces the cause of an unexpected registration failure.
const MsgUnavailable = "Registration is unavailable, please try again later"


// StatusFor maps a registration Outcome to an HTTP status.
func StatusFor(out shelter.Outcome) int {
	switch {
	case out.OK:
		return http.StatusOK
	case out.Message == shelter.MsgCredentialsRequired,
		out.Message == shelter.MsgPasswordTooLong:
		return http.StatusBadRequest
	case out.Message == shelter.MsgUsernameTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
