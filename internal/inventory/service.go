package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

const (
	opAdjustInventory = "adjust_inventory"
	defaultListLimit  = 200
	// maxStockQuantity matches the INTEGER stock and adjustment columns.
	maxStockQuantity = math.MaxInt32
	hookTimeout      = 5 * time.Second
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListAdjustments(ctx context.Context, filter AdjustmentFilter) ([]Adjustment, error)
}

// Service coordinates inventory adjustments.
type Service struct {
	repo        RepositoryPort
	integration IntegrationHandler
	metrics     *observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, integration IntegrationHandler, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, integration: integration, metrics: metrics, logger: logger, now: time.Now}
}

// AdjustInventory applies a signed stock delta and writes its audit row in one
// transaction. Deltas that would leave negative stock are rejected.
func (s *Service) AdjustInventory(ctx context.Context, input AdjustmentInput) (AdjustmentResult, error) {
	if err := validateAdjustment(input); err != nil {
		s.metrics.ObserveFailure(opAdjustInventory, shared.ErrorKind(err))
		return AdjustmentResult{}, err
	}

	now := s.now().UTC()
	var result AdjustmentResult
	var level products.StockLevel
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		newQty := current.StockQuantity + input.QuantityChange
		if newQty > maxStockQuantity {
			return fmt.Errorf("%w: stock of product %d would exceed %d", shared.ErrInvalidOperation, input.ProductID, maxStockQuantity)
		}
		if newQty < 0 {
			return &products.NegativeStockError{
				ProductID:    input.ProductID,
				CurrentStock: current.StockQuantity,
				Change:       decimal.NewFromInt(input.QuantityChange),
			}
		}
		if err := tx.UpdateStock(ctx, input.ProductID, newQty); err != nil {
			return fmt.Errorf("inventory: update stock: %w", err)
		}
		adjustmentID, err := tx.InsertAdjustment(ctx, Adjustment{
			ProductID:      input.ProductID,
			AdjustmentType: input.AdjustmentType,
			QuantityChange: input.QuantityChange,
			OldQuantity:    current.StockQuantity,
			NewQuantity:    newQty,
			Reason:         input.Reason,
			UserID:         input.UserID,
			CreatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("inventory: insert adjustment: %w", err)
		}
		result = AdjustmentResult{
			AdjustmentID:   adjustmentID,
			ProductID:      input.ProductID,
			AdjustmentType: input.AdjustmentType,
			OldQuantity:    current.StockQuantity,
			NewQuantity:    newQty,
			QuantityChange: input.QuantityChange,
		}
		level = products.StockLevel{ProductID: input.ProductID, StockQuantity: newQty, MinStockLevel: current.MinStockLevel}
		return nil
	})
	if err != nil {
		err = shared.StorageError(err)
		s.metrics.ObserveFailure(opAdjustInventory, shared.ErrorKind(err))
		return AdjustmentResult{}, err
	}

	s.metrics.ObserveAdjustment(string(result.AdjustmentType))
	s.logger.Info("inventory adjusted",
		slog.Int64("adjustment_id", result.AdjustmentID),
		slog.Int64("product_id", result.ProductID),
		slog.String("type", string(result.AdjustmentType)),
		slog.Int64("old_quantity", result.OldQuantity),
		slog.Int64("new_quantity", result.NewQuantity),
	)

	if s.integration != nil {
		evt := AdjustedEvent{
			AdjustmentID:   result.AdjustmentID,
			AdjustmentType: result.AdjustmentType,
			QuantityChange: result.QuantityChange,
			UserID:         input.UserID,
			Stock:          level,
			AdjustedAt:     now,
		}
		hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
		defer cancel()
		if err := s.integration.HandleInventoryAdjusted(hookCtx, evt); err != nil {
			s.logger.Warn("inventory adjusted hook", slog.Int64("adjustment_id", result.AdjustmentID), slog.Any("error", err))
		}
	}
	return result, nil
}

// ListAdjustments returns the adjustment history of a product, newest first.
func (s *Service) ListAdjustments(ctx context.Context, filter AdjustmentFilter) ([]Adjustment, error) {
	if filter.ProductID <= 0 {
		return nil, shared.InvalidInput("product_id is required")
	}
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	adjustments, err := s.repo.ListAdjustments(ctx, filter)
	if err != nil {
		return nil, shared.StorageError(err)
	}
	return adjustments, nil
}

func validateAdjustment(input AdjustmentInput) error {
	if input.ProductID <= 0 {
		return shared.InvalidInput("product_id is required")
	}
	if input.AdjustmentType == "" {
		return shared.InvalidInput("adjustment_type is required")
	}
	if input.UserID <= 0 {
		return shared.InvalidInput("user_id is required")
	}
	if input.QuantityChange == 0 {
		return shared.InvalidInput("quantity_change is required")
	}
	if input.QuantityChange > maxStockQuantity || input.QuantityChange < -maxStockQuantity {
		return shared.InvalidInput("quantity_change must be within ±%d", maxStockQuantity)
	}
	if !input.AdjustmentType.Valid() {
		return shared.InvalidInput("adjustment_type must be one of restock, shrinkage, correction")
	}
	return nil
}
