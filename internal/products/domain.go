package products

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// StockLevel is the stock snapshot of one product.
type StockLevel struct {
	ProductID     int64 `json:"product_id"`
	StockQuantity int64 `json:"stock_quantity"`
	MinStockLevel int64 `json:"min_stock_level"`
}

// Low reports whether the stock is at or below its minimum level.
func (l StockLevel) Low() bool {
	return l.StockQuantity <= l.MinStockLevel
}

// ErrProductNotFound indicates the referenced product row does not exist.
var ErrProductNotFound = fmt.Errorf("products: %w", shared.ErrNotFound)

// NotFound returns ErrProductNotFound annotated with the product id.
func NotFound(productID int64) error {
	return fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
}

// IsNotFound reports whether err refers to a missing product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// ErrNegativeStock triggered when a stock change would leave a negative quantity.
var ErrNegativeStock = fmt.Errorf("products: %w: negative stock not allowed", shared.ErrInvalidOperation)

// NegativeStockError reports the rejected change against the current stock.
type NegativeStockError struct {
	ProductID    int64
	CurrentStock int64
	Change       decimal.Decimal
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("%s: product %d has stock %d, change %s", ErrNegativeStock.Error(), e.ProductID, e.CurrentStock, e.Change.String())
}

func (e *NegativeStockError) Unwrap() error {
	return ErrNegativeStock
}
