package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"evelis/internal/infrastructure"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service AnalyticsService
	logger  *slog.Logger
	started time.Time
}

func NewHealthHandler(service AnalyticsService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  infrastructure.WithComponent(logger, "health_handler"),
		started: time.Now(),
	}
}

func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.Health)
	r.Get("/ready", h.Ready)
	return r
}

// Health reports process liveness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":         "healthy",
		"version":        infrastructure.ServiceVersion,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the service can answer data queries. It always
// succeeds once the snapshot restore has run, with the current master
// index size as a hint about loaded state.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":         "ready",
		"master_entries": h.service.MasterEntries(),
	})
}
