package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStock is the task type raised when a product's stock changes.
	TaskLowStock = "stock:low"
)

// LowStockPayload describes a product's stock after a committed write.
type LowStockPayload struct {
	ProductID     int64     `json:"product_id"`
	StockQuantity int64     `json:"stock_quantity"`
	MinStockLevel int64     `json:"min_stock_level"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Low reports whether the payload is at or below the minimum level.
func (p LowStockPayload) Low() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// NewLowStockTask constructs an Asynq task.
func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStock, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
