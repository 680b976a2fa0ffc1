package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/cache"
)

// LowStockHandler raises one alert per product while it stays at or below its
// minimum level. Stock above the minimum re-arms the alert.
type LowStockHandler struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLowStockHandler constructs the handler. A zero ttl keeps alerts armed-off until recovery.
func NewLowStockHandler(client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *LowStockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockHandler{redis: client, ttl: ttl, logger: logger, metrics: metrics}
}

// ProcessTask implements asynq.Handler.
func (h *LowStockHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: decode low stock payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ProductID <= 0 {
		return fmt.Errorf("jobs: low stock payload without product: %w", asynq.SkipRetry)
	}
	_, err := h.Handle(ctx, payload)
	return err
}

// Handle processes one stock snapshot and reports whether an alert was raised.
func (h *LowStockHandler) Handle(ctx context.Context, payload LowStockPayload) (bool, error) {
	key := cache.LowStockKey(payload.ProductID)
	if !payload.Low() {
		if h.redis != nil {
			if err := h.redis.Del(ctx, key).Err(); err != nil {
				return false, fmt.Errorf("jobs: re-arm low stock alert: %w", err)
			}
		}
		return false, nil
	}
	if h.redis != nil {
		first, err := h.redis.SetNX(ctx, key, payload.StockQuantity, h.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("jobs: dedup low stock alert: %w", err)
		}
		if !first {
			return false, nil
		}
	}
	h.logger.Warn("low stock",
		slog.Int64("product_id", payload.ProductID),
		slog.Int64("stock_quantity", payload.StockQuantity),
		slog.Int64("min_stock_level", payload.MinStockLevel),
		slog.String("source", payload.Source),
	)
	h.metrics.ObserveLowStockAlert()
	return true, nil
}
