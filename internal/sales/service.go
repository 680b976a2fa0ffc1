package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

const (
	opRecordSale = "record_sale"
	hookTimeout  = 5 * time.Second
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// DefaultTaxRate applies to items without their own rate. Nil means DefaultTaxRate.
	DefaultTaxRate *decimal.Decimal
	// EnforceStock rejects sales that would drive a product's stock negative.
	EnforceStock bool
}

// Service records sales.
type Service struct {
	repo        RepositoryPort
	integration IntegrationHandler
	metrics     *observability.Metrics
	logger      *slog.Logger
	taxRate     decimal.Decimal
	enforce     bool
	now         func() time.Time
	newNumber   func(time.Time) string
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig, integration IntegrationHandler, metrics *observability.Metrics, logger *slog.Logger) *Service {
	rate := DefaultTaxRate
	if cfg.DefaultTaxRate != nil {
		rate = *cfg.DefaultTaxRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		integration: integration,
		metrics:     metrics,
		logger:      logger,
		taxRate:     rate,
		enforce:     cfg.EnforceStock,
		now:         time.Now,
		newNumber:   GenerateSaleNumber,
	}
}

// RecordSale persists the sale header, its items and the stock decrements in
// one transaction.
func (s *Service) RecordSale(ctx context.Context, input RecordSaleInput) (SaleSummary, error) {
	if err := validateSale(input); err != nil {
		s.metrics.ObserveFailure(opRecordSale, shared.ErrorKind(err))
		return SaleSummary{}, err
	}

	now := s.now().UTC()
	totals := CalculateTotals(input.Items, s.taxRate)
	sale := Sale{
		SaleNumber:    s.newNumber(now),
		UserID:        input.UserID,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.TotalAmount,
		PaymentMethod: input.PaymentMethod,
		CashReceived:  nullDecimal(input.CashReceived),
		ChangeGiven:   nullDecimal(input.ChangeGiven),
		PaymentID:     input.PaymentID,
		CreatedAt:     now,
	}

	var levels []products.StockLevel
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		levels = levels[:0]
		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("sales: insert sale: %w", err)
		}
		sale.ID = saleID
		for i, item := range input.Items {
			line := SaleItem{
				SaleID:     saleID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.Quantity.Mul(item.UnitPrice),
			}
			if _, err := tx.InsertItem(ctx, line); err != nil {
				return fmt.Errorf("sales: insert item %d: %w", i, err)
			}
			level, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("sales: decrement stock of product %d: %w", item.ProductID, err)
			}
			if s.enforce && level.StockQuantity < 0 {
				return &products.NegativeStockError{
					ProductID:    item.ProductID,
					CurrentStock: level.StockQuantity + StockDecrement(item.Quantity),
					Change:       item.Quantity.Neg(),
				}
			}
			levels = append(levels, level)
		}
		return nil
	})
	if err != nil {
		err = shared.StorageError(err)
		s.metrics.ObserveFailure(opRecordSale, shared.ErrorKind(err))
		s.logger.Warn("record sale failed", slog.String("sale_number", sale.SaleNumber), slog.Any("error", err))
		return SaleSummary{}, err
	}

	summary := SaleSummary{
		SaleID:      sale.ID,
		SaleNumber:  sale.SaleNumber,
		Subtotal:    totals.Subtotal,
		TaxAmount:   totals.TaxAmount,
		TotalAmount: totals.TotalAmount,
		ItemCount:   len(input.Items),
	}
	s.metrics.ObserveSale(totals.TotalAmount)
	s.logger.Info("sale recorded",
		slog.Int64("sale_id", summary.SaleID),
		slog.String("sale_number", summary.SaleNumber),
		slog.String("total_amount", summary.TotalAmount.String()),
		slog.Int("item_count", summary.ItemCount),
	)

	if s.integration != nil {
		evt := SaleRecordedEvent{
			SaleID:        summary.SaleID,
			SaleNumber:    summary.SaleNumber,
			UserID:        input.UserID,
			PaymentMethod: input.PaymentMethod,
			TotalAmount:   summary.TotalAmount,
			ItemCount:     summary.ItemCount,
			StockLevels:   levels,
			RecordedAt:    now,
		}
		hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
		defer cancel()
		if err := s.integration.HandleSaleRecorded(hookCtx, evt); err != nil {
			s.logger.Warn("sale recorded hook", slog.String("sale_number", summary.SaleNumber), slog.Any("error", err))
		}
	}
	return summary, nil
}

// GetSale loads a committed sale with its items.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, shared.InvalidInput("sale id must be positive")
	}
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return Sale{}, shared.StorageError(err)
	}
	return sale, nil
}

func validateSale(input RecordSaleInput) error {
	if input.UserID <= 0 {
		return shared.InvalidInput("user_id is required")
	}
	if len(input.Items) == 0 {
		return shared.InvalidInput("items must not be empty")
	}
	if !input.PaymentMethod.Valid() {
		return shared.InvalidInput("payment_method must be one of cash, card")
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 {
			return shared.InvalidInput("items[%d].product_id is required", i)
		}
		if !item.Quantity.IsPositive() {
			return shared.InvalidInput("items[%d].quantity must be positive", i)
		}
		if !item.UnitPrice.IsPositive() {
			return shared.InvalidInput("items[%d].unit_price must be positive", i)
		}
		if item.TaxRate != nil && (item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
			return shared.InvalidInput("items[%d].tax_rate must be between 0 and 1", i)
		}
	}
	if input.CashReceived != nil && input.CashReceived.IsNegative() {
		return shared.InvalidInput("cash_received must not be negative")
	}
	if input.ChangeGiven != nil && input.ChangeGiven.IsNegative() {
		return shared.InvalidInput("change_given must not be negative")
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
