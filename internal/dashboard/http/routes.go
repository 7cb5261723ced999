package dashboardhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/api/slicer", h.handleSlicer)
	r.Get("/api/dashboard", h.handleDashboard)
	r.Get("/api/comparison", h.handleComparison)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/api/dashboard/export.csv", h.handleDashboardCSV)
		gr.Get("/api/comparison/export.csv", h.handleComparisonCSV)
	})
}

// rateLimitKey scopes export throttling per caller role/allow-list,
// falling back to IP for anonymous traffic.
func rateLimitKey(r *http.Request) (string, error) {
	caller := shared.CallerFromContext(r.Context())
	if caller.Role != "" {
		return "role:" + caller.Role + ":" + strings.Join(caller.AllowedBrands, ","), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
