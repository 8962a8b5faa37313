// Package animals exposes the four record operations over HTTP. Filters,
// data and changes are Extended JSON objects so query operators and typed
// values ($in, $gte, $date, $oid) pass through to the store unchanged.
package animals

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/dalemusser/stratashelter/internal/app/system/recordview"
	"github.com/dalemusser/stratashelter/internal/app/system/rescue"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Records is the part of *shelter.Client this feature uses.
type Records interface {
	Create(ctx context.Context, data bson.M) (bool, error)
	Read(ctx context.Context, filter bson.M) ([]bson.M, error)
	Update(ctx context.Context, filter, changes bson.M) (shelter.UpdateResult, error)
	Delete(ctx context.Context, filter bson.M) (shelter.DeleteResult, error)
	Collection() string
}

// Handler serves /animals.
type Handler struct {
	records     Records
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new animals Handler. auditLogger may be nil.
func NewHandler(records Records, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		records:     records,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Routes returns a chi.Router with the animals routes mounted. Every route
// requires a signed-in session.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.list)
	r.Get("/presets", h.presets)
	r.Post("/search", h.search)
	r.Post("/", h.create)
	r.Patch("/", h.update)
	r.Delete("/", h.remove)
	return r
}

type searchInput struct {
	Filter json.RawMessage `json:"filter"`
}

type createInput struct {
	Data json.RawMessage `json:"data"`
}

type updateInput struct {
	Filter  json.RawMessage `json:"filter"`
	Changes json.RawMessage `json:"changes"`
}

// list serves the rescue-type selector: ?rescue=water|mountain|disaster|reset.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := rescue.Filter(r.URL.Query().Get("rescue"))
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	h.read(w, r, filter)
}

func (h *Handler) presets(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, rescue.All())
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var in searchInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	filter, err := parseDocument("filter", in.Filter)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	h.read(w, r, filter)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request, filter bson.M) {
	docs, err := h.records.Read(r.Context(), filter)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}
	jsonutil.OK(w, recordview.StripIDs(docs))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	data, err := parseDocument("data", in.Data)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	created, err := h.records.Create(r.Context(), data)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}
	h.audit(r, audit.EventRecordCreated, map[string]int64{"created": 1})
	jsonutil.Created(w, map[string]bool{"created": created})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in updateInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	filter, err := parseDocument("filter", in.Filter)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	changes, err := parseDocument("changes", in.Changes)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	res, err := h.records.Update(r.Context(), filter, changes)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}
	h.audit(r, audit.EventRecordUpdated, map[string]int64{"matched": res.Matched, "modified": res.Modified})
	jsonutil.OK(w, res)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var in searchInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	filter, err := parseDocument("filter", in.Filter)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	res, err := h.records.Delete(r.Context(), filter)
	if err != nil {
		h.errLog.Respond(w, r, err)
		return
	}
	h.audit(r, audit.EventRecordDeleted, map[string]int64{"deleted": res.Deleted})
	jsonutil.OK(w, res)
}

func (h *Handler) audit(r *http.Request, eventType string, counts map[string]int64) {
	var username string
	if u, ok := auth.CurrentUser(r); ok {
		username = u.Username
	}
	h.auditLogger.RecordChanged(r, eventType, username, h.records.Collection(), counts)
}

func parseDocument(field string, raw json.RawMessage) (bson.M, error) {
	return recordview.ParseDocument(field, raw)
}
