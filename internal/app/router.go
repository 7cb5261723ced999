package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dashboardhttp "github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard/http"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/feedback"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/observability"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/targets"
	"github.com/bluewhale-ops/bluewhale-analytics/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	DashboardHandler *dashboardhttp.Handler
	TargetsHandler   *targets.Handler
	FeedbackHandler  *feedback.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}
	if params.TargetsHandler != nil {
		params.TargetsHandler.MountRoutes(r)
	}
	if params.FeedbackHandler != nil {
		params.FeedbackHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		params.JobsHandler.MountRoutes(r)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
