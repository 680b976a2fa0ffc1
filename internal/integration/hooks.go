package integration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/inventory"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/sales"
	"github.com/odyssey-pos/odyssey-pos/jobs"
)

const (
	// EventSaleRecorded is published after a sale commits.
	EventSaleRecorded = "sale.recorded"
	// EventInventoryAdjusted is published after an adjustment commits.
	EventInventoryAdjusted = "inventory.adjusted"
)

// EventPublisher writes domain events to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key, eventType string, payload any) error
}

// LowStockEnqueuer schedules low-stock checks.
type LowStockEnqueuer interface {
	EnqueueLowStock(ctx context.Context, payload jobs.LowStockPayload) error
}

// Topics names the Kafka topics per module.
type Topics struct {
	Sales     string
	Inventory string
}

// Hooks fans committed sales and adjustments out to the event stream and the
// low-stock queue. Either sink may be nil.
type Hooks struct {
	publisher EventPublisher
	enqueuer  LowStockEnqueuer
	topics    Topics
}

// NewHooks constructs integration hooks.
func NewHooks(publisher EventPublisher, enqueuer LowStockEnqueuer, topics Topics) *Hooks {
	return &Hooks{publisher: publisher, enqueuer: enqueuer, topics: topics}
}

// SaleRecordedPayload is the event body for EventSaleRecorded.
type SaleRecordedPayload struct {
	SaleID        int64                 `json:"sale_id"`
	SaleNumber    string                `json:"sale_number"`
	UserID        int64                 `json:"user_id"`
	PaymentMethod string                `json:"payment_method"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	ItemCount     int                   `json:"item_count"`
	Stock         []products.StockLevel `json:"stock"`
}

// InventoryAdjustedPayload is the event body for EventInventoryAdjusted.
type InventoryAdjustedPayload struct {
	AdjustmentID   int64  `json:"adjustment_id"`
	ProductID      int64  `json:"product_id"`
	AdjustmentType string `json:"adjustment_type"`
	QuantityChange int64  `json:"quantity_change"`
	NewQuantity    int64  `json:"new_quantity"`
	UserID         int64  `json:"user_id"`
}

// HandleSaleRecorded publishes the sale and checks stock of every sold product.
func (h *Hooks) HandleSaleRecorded(ctx context.Context, evt sales.SaleRecordedEvent) error {
	if h == nil {
		return nil
	}
	levels := latestLevels(evt.StockLevels)
	var errs []error
	if h.publisher != nil {
		payload := SaleRecordedPayload{
			SaleID:        evt.SaleID,
			SaleNumber:    evt.SaleNumber,
			UserID:        evt.UserID,
			PaymentMethod: string(evt.PaymentMethod),
			TotalAmount:   evt.TotalAmount,
			ItemCount:     evt.ItemCount,
			Stock:         levels,
		}
		errs = append(errs, h.publisher.Publish(ctx, h.topics.Sales, evt.SaleNumber, EventSaleRecorded, payload))
	}
	for _, level := range levels {
		if !level.Low() {
			continue
		}
		errs = append(errs, h.enqueue(ctx, level, "sale", evt.RecordedAt))
	}
	return errors.Join(errs...)
}

// HandleInventoryAdjusted publishes the adjustment and forwards the new stock
// level, low or not, so recovered products re-arm their alert.
func (h *Hooks) HandleInventoryAdjusted(ctx context.Context, evt inventory.AdjustedEvent) error {
	if h == nil {
		return nil
	}
	var errs []error
	if h.publisher != nil {
		payload := InventoryAdjustedPayload{
			AdjustmentID:   evt.AdjustmentID,
			ProductID:      evt.Stock.ProductID,
			AdjustmentType: string(evt.AdjustmentType),
			QuantityChange: evt.QuantityChange,
			NewQuantity:    evt.Stock.StockQuantity,
			UserID:         evt.UserID,
		}
		key := strconv.FormatInt(evt.Stock.ProductID, 10)
		errs = append(errs, h.publisher.Publish(ctx, h.topics.Inventory, key, EventInventoryAdjusted, payload))
	}
	errs = append(errs, h.enqueue(ctx, evt.Stock, "adjustment:"+string(evt.AdjustmentType), evt.AdjustedAt))
	return errors.Join(errs...)
}

func (h *Hooks) enqueue(ctx context.Context, level products.StockLevel, source string, at time.Time) error {
	if h.enqueuer == nil {
		return nil
	}
	return h.enqueuer.EnqueueLowStock(ctx, jobs.LowStockPayload{
		ProductID:     level.ProductID,
		StockQuantity: level.StockQuantity,
		MinStockLevel: level.MinStockLevel,
		Source:        source,
		OccurredAt:    at,
	})
}

// latestLevels keeps the last snapshot per product, in first-seen order.
func latestLevels(levels []products.StockLevel) []products.StockLevel {
	index := make(map[int64]int, len(levels))
	out := make([]products.StockLevel, 0, len(levels))
	for _, level := range levels {
		if i, ok := index[level.ProductID]; ok {
			out[i] = level
			continue
		}
		index[level.ProductID] = len(out)
		out = append(out, level)
	}
	return out
}
