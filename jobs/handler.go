package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/platform/httpx"
)

// Handler exposes operational endpoints: enqueue a warmup run and bump
// the KPI cache version after an upstream ingest.
type Handler struct {
	client *asynq.Client
	cache  *dashboard.Cache
	logger *slog.Logger
}

// NewHandler constructs the jobs HTTP handler.
func NewHandler(client *asynq.Client, cache *dashboard.Cache, logger *slog.Logger) *Handler {
	return &Handler{client: client, cache: cache, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/api/jobs/warmup", h.handleWarmup)
	r.Post("/api/cache/bump", h.handleBump)
}

func (h *Handler) handleWarmup(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		httpx.Fail(w, http.StatusServiceUnavailable, "job queue not configured")
		return
	}
	task, err := NewKPIWarmupTask(KPIWarmupPayload{})
	if err != nil {
		httpx.Fail(w, http.StatusInternalServerError, "build task")
		return
	}
	info, err := h.client.EnqueueContext(r.Context(), task, asynq.Queue(QueueDefault))
	if err != nil {
		h.logger.Error("enqueue warmup", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "enqueue failed")
		return
	}
	httpx.OK(w, map[string]string{"taskId": info.ID})
}

func (h *Handler) handleBump(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Error("bump cache", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "bump failed")
		return
	}
	httpx.OK(w, map[string]string{"status": "bumped"})
}
