package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertItem(ctx context.Context, item SaleItem) (int64, error)
	DecrementStock(ctx context.Context, productID int64, qty decimal.Decimal) (products.StockLevel, error)
}

// ErrSaleNotFound indicates missing sale row.
var ErrSaleNotFound = fmt.Errorf("sales: %w", shared.ErrNotFound)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetSale loads the header and items of a sale.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	if r == nil {
		return Sale{}, errors.New("sales repository not initialised")
	}
	var sale Sale
	err := r.pool.QueryRow(ctx, `SELECT id, sale_number, user_id, subtotal, tax_amount, total_amount, payment_method, cash_received, change_given, payment_id, created_at
FROM sales WHERE id=$1`, id).Scan(&sale.ID, &sale.SaleNumber, &sale.UserID, &sale.Subtotal, &sale.TaxAmount, &sale.TotalAmount,
		&sale.PaymentMethod, &sale.CashReceived, &sale.ChangeGiven, &sale.PaymentID, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, fmt.Errorf("%w: sale %d", ErrSaleNotFound, id)
		}
		return Sale{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, quantity, unit_price, total_price
FROM sale_items WHERE sale_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	sale.Items = []SaleItem{}
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return Sale{}, err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (sale_number, user_id, subtotal, tax_amount, total_amount, payment_method, cash_received, change_given, payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`, sale.SaleNumber, sale.UserID, sale.Subtotal, sale.TaxAmount, sale.TotalAmount,
		string(sale.PaymentMethod), sale.CashReceived, sale.ChangeGiven, sale.PaymentID, sale.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) InsertItem(ctx context.Context, item SaleItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice).Scan(&id)
	return id, err
}

// DecrementStock subtracts qty without a floor. Fractional quantities are
// rounded up into the integer stock column.
func (r *txRepository) DecrementStock(ctx context.Context, productID int64, qty decimal.Decimal) (products.StockLevel, error) {
	var level products.StockLevel
	err := r.tx.QueryRow(ctx, `UPDATE products SET stock_quantity = stock_quantity - CEIL($2::numeric)::int, updated_at = NOW()
WHERE id=$1 RETURNING id, stock_quantity, min_stock_level`, productID, qty).
		Scan(&level.ProductID, &level.StockQuantity, &level.MinStockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return products.StockLevel{}, products.NotFound(productID)
		}
		return products.StockLevel{}, err
	}
	return level, nil
}
