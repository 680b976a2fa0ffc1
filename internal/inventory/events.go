package inventory

import (
	"context"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/products"
)

// AdjustedEvent represents a committed inventory adjustment.
type AdjustedEvent struct {
	AdjustmentID   int64
	AdjustmentType AdjustmentType
	QuantityChange int64
	UserID         int64
	Stock          products.StockLevel
	AdjustedAt     time.Time
}

// IntegrationHandler receives inventory events after commit.
type IntegrationHandler interface {
	HandleInventoryAdjusted(ctx context.Context, evt AdjustedEvent) error
}
