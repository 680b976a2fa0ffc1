package inventory

import "time"

// AdjustmentType enumerates manual stock corrections.
type AdjustmentType string

const (
	// AdjustmentRestock adds received goods.
	AdjustmentRestock AdjustmentType = "restock"
	// AdjustmentShrinkage removes lost or damaged goods.
	AdjustmentShrinkage AdjustmentType = "shrinkage"
	// AdjustmentCorrection fixes a miscount in either direction.
	AdjustmentCorrection AdjustmentType = "correction"
)

// Valid reports whether the adjustment type is supported.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentRestock, AdjustmentShrinkage, AdjustmentCorrection:
		return true
	}
	return false
}

// Adjustment is the immutable audit record of one stock correction.
type Adjustment struct {
	ID             int64          `json:"id"`
	ProductID      int64          `json:"product_id"`
	AdjustmentType AdjustmentType `json:"adjustment_type"`
	QuantityChange int64          `json:"quantity_change"`
	OldQuantity    int64          `json:"old_quantity"`
	NewQuantity    int64          `json:"new_quantity"`
	Reason         *string        `json:"reason,omitempty"`
	UserID         int64          `json:"user_id"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AdjustmentInput describes request to adjust stock.
type AdjustmentInput struct {
	ProductID      int64
	AdjustmentType AdjustmentType
	QuantityChange int64
	Reason         *string
	UserID         int64
}

// AdjustmentResult is returned after an adjustment commits.
type AdjustmentResult struct {
	AdjustmentID   int64          `json:"adjustment_id"`
	ProductID      int64          `json:"product_id"`
	AdjustmentType AdjustmentType `json:"adjustment_type"`
	OldQuantity    int64          `json:"old_quantity"`
	NewQuantity    int64          `json:"new_quantity"`
	QuantityChange int64          `json:"quantity_change"`
}

// AdjustmentFilter filters the adjustment history.
type AdjustmentFilter struct {
	ProductID int64
	Limit     int
}
