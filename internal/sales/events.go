package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/products"
)

// SaleRecordedEvent describes a committed sale and the stock it left behind.
type SaleRecordedEvent struct {
	SaleID        int64
	SaleNumber    string
	UserID        int64
	PaymentMethod PaymentMethod
	TotalAmount   decimal.Decimal
	ItemCount     int
	StockLevels   []products.StockLevel
	RecordedAt    time.Time
}

// IntegrationHandler receives sale events after commit.
type IntegrationHandler interface {
	HandleSaleRecorded(ctx context.Context, evt SaleRecordedEvent) error
}
