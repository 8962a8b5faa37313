// Package auditlog serves the audit trail of logins and record changes to
// the configured audit viewers.
package auditlog

import (
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler provides audit log handlers.
type Handler struct {
	store  *audit.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(store *audit.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{store: store, errLog: errLog, logger: logger}
}

// Routes returns a chi.Router with the audit log routes mounted. Only the
// usernames in viewers may read the log.
func Routes(h *Handler, sessionMgr *auth.SessionManager, viewers []string) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireUser(viewers...))
	r.Get("/", h.list)
	return r
}

type item struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	Username      string            `json:"username,omitempty"`
	IP            string            `json:"ip,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// ListResponse is the body of GET /audit.
type ListResponse struct {
	Events []item `json:"events"`
	Total  int64  `json:"total"`
}

// list answers GET /audit?category=&event_type=&username=&since=&limit=.
// since is RFC 3339 or YYYY-MM-DD (UTC midnight).
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Username:  q.Get("username"),
		Category:  q.Get("category"),
		EventType: q.Get("event_type"),
		Limit:     defaultLimit,
	}

	switch filter.Category {
	case "", audit.CategoryAuth, audit.CategoryRecords:
	default:
		jsonutil.BadRequest(w, "category must be auth or records")
		return
	}

	if v := q.Get("since"); v != "" {
		since, err := parseSince(v)
		if err != nil {
			jsonutil.BadRequest(w, "since must be RFC 3339 or YYYY-MM-DD")
			return
		}
		filter.Since = &since
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, maxLimit)
	}

	events, err := h.store.Query(r.Context(), filter)
	if err != nil {
		h.errLog.Log(r, "audit query failed", err)
		jsonutil.InternalError(w, "could not load audit events")
		return
	}
	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		h.errLog.Log(r, "audit count failed", err)
		jsonutil.InternalError(w, "could not load audit events")
		return
	}

	resp := ListResponse{Events: make([]item, 0, len(events)), Total: total}
	for _, e := range events {
		resp.Events = append(resp.Events, item{
			ID:            e.ID.Hex(),
			CreatedAt:     e.CreatedAt,
			Category:      e.Category,
			EventType:     e.EventType,
			Username:      e.Username,
			IP:            e.IP,
			RequestID:     e.RequestID,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	jsonutil.OK(w, resp)
}

func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
