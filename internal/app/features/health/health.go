// Package health serves liveness and readiness probes backed by a store ping.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// pingTimeout matches the store's own liveness budget.
const pingTimeout = 5 * time.Second

// Pinger is satisfied by *shelter.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides health check endpoints.
type Handler struct {
	store  Pinger
	logger *zap.Logger
}

// NewHandler creates a new health check Handler.
func NewHandler(store Pinger, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes mounts /, /ready and /live; bootstrap mounts it at /health.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe aliases /ready, /readyz and /livez.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports each backing service.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: "ok", Services: map[string]string{}}

	if err := h.ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Services["mongodb"] = "ok"
	jsonutil.OK(w, resp)
}

// Ready is the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live is the liveness probe. It never touches the store.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}
