package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/platform/httpx"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

const requestTimeout = 5 * time.Second

// Handler exposes feedback endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	validator *validator.Validate
}

// NewHandler constructs the feedback HTTP handler.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo, validator: validator.New()}
}

// MountRoutes registers feedback endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/api/feedback", h.handleList)
	r.Post("/api/feedback", h.handleSubmit)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.repo.List(ctx, limit)
	if err != nil {
		h.logger.Error("list feedback", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, list)
}

type submitRequest struct {
	UserName string `json:"userName" validate:"required,max=64"`
	Page     string `json:"page" validate:"required,max=128"`
	Rating   int    `json:"rating" validate:"gte=1,lte=5"`
	Comment  string `json:"comment" validate:"max=2000"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	saved, err := h.repo.Insert(ctx, Feedback{
		UserName: req.UserName,
		Role:     shared.CallerFromContext(r.Context()).Role,
		Page:     req.Page,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		h.logger.Error("submit feedback", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, saved)
}
