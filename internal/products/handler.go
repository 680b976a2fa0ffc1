package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Handler exposes stock lookups over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the products handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/stock", h.getStock)
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.InvalidInput("invalid product id"))
		return
	}
	level, err := h.service.GetStock(r.Context(), id)
	if err != nil {
		if shared.IsInternal(err) {
			h.logger.Error("get stock", slog.Int64("product_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, level)
}
