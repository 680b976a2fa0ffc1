package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordSale)
	r.Get("/{id}", h.getSale)
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.RecordSale(r.Context(), req.ToInput())
	if err != nil {
		if shared.IsInternal(err) {
			h.logger.Error("record sale", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, summary)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.InvalidInput("invalid sale id"))
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		if shared.IsInternal(err) {
			h.logger.Error("get sale", slog.Int64("sale_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, sale)
}
