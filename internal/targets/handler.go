package targets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/platform/httpx"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

const requestTimeout = 5 * time.Second

// Handler exposes target CRUD endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the targets HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers target endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/api/targets", h.handleList)
	r.Post("/api/targets", h.handleSave)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed year %q", shared.ErrValidation, yearStr))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.service.List(ctx, currency, year)
	if err != nil {
		h.logger.Error("list targets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, list)
}

type saveTargetRequest struct {
	Currency           string  `json:"currency" validate:"required,oneof=MYR SGD USC"`
	Line               string  `json:"line" validate:"required"`
	Year               int     `json:"year" validate:"required,gte=2000"`
	Quarter            int     `json:"quarter" validate:"required,gte=1,lte=4"`
	DepositTarget      float64 `json:"depositTarget" validate:"gte=0"`
	GGRTarget          float64 `json:"ggrTarget"`
	ActiveMemberTarget int     `json:"activeMemberTarget" validate:"gte=0"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveTargetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	caller := shared.CallerFromContext(r.Context())
	if !caller.CanAccess(req.Line) {
		httpx.RespondError(w, fmt.Errorf("%w: line %q not accessible", shared.ErrValidation, req.Line))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor := caller.Role
	if actor == "" {
		actor = "anonymous"
	}
	saved, err := h.service.Save(ctx, Target{
		Currency:           req.Currency,
		Line:               req.Line,
		Year:               req.Year,
		Quarter:            req.Quarter,
		DepositTarget:      req.DepositTarget,
		GGRTarget:          req.GGRTarget,
		ActiveMemberTarget: req.ActiveMemberTarget,
	}, actor)
	if err != nil {
		h.logger.Error("save target", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, saved)
}
