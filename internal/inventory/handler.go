package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/adjustments", h.listAdjustments)
	r.Post("/adjustments", h.adjust)
}

// AdjustmentRequest is the JSON body of POST /inventory/adjustments.
type AdjustmentRequest struct {
	ProductID      int64   `json:"product_id" validate:"required,gt=0"`
	AdjustmentType string  `json:"adjustment_type" validate:"required,oneof=restock shrinkage correction"`
	QuantityChange int64   `json:"quantity_change" validate:"required"`
	Reason         *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	UserID         int64   `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.AdjustInventory(r.Context(), AdjustmentInput{
		ProductID:      req.ProductID,
		AdjustmentType: AdjustmentType(req.AdjustmentType),
		QuantityChange: req.QuantityChange,
		Reason:         req.Reason,
		UserID:         req.UserID,
	})
	if err != nil {
		if shared.IsInternal(err) {
			h.logger.Error("adjust inventory", slog.Int64("product_id", req.ProductID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, result)
}

func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.InvalidInput("product_id is required"))
		return
	}
	filter := AdjustmentFilter{ProductID: productID}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			httpx.RespondError(w, shared.InvalidInput("limit must be a number"))
			return
		}
		filter.Limit = limit
	}
	adjustments, err := h.service.ListAdjustments(r.Context(), filter)
	if err != nil {
		if shared.IsInternal(err) {
			h.logger.Error("list adjustments", slog.Int64("product_id", productID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, adjustments)
}
