package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, productID int64) (products.StockLevel, error)
	UpdateStock(ctx context.Context, productID, qty int64) error
	InsertAdjustment(ctx context.Context, adj Adjustment) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) ListAdjustments(ctx context.Context, filter AdjustmentFilter) ([]Adjustment, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, adjustment_type, quantity_change, old_quantity, new_quantity, reason, user_id, created_at
FROM inventory_adjustments
WHERE product_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2`, filter.ProductID, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	adjustments := []Adjustment{}
	for rows.Next() {
		var adj Adjustment
		if err := rows.Scan(&adj.ID, &adj.ProductID, &adj.AdjustmentType, &adj.QuantityChange, &adj.OldQuantity, &adj.NewQuantity, &adj.Reason, &adj.UserID, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, productID int64) (products.StockLevel, error) {
	var level products.StockLevel
	err := r.tx.QueryRow(ctx, `SELECT id, stock_quantity, min_stock_level FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&level.ProductID, &level.StockQuantity, &level.MinStockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return products.StockLevel{}, products.NotFound(productID)
		}
		return products.StockLevel{}, err
	}
	return level, nil
}

func (r *txRepository) UpdateStock(ctx context.Context, productID, qty int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity=$2, updated_at=NOW() WHERE id=$1`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return products.NotFound(productID)
	}
	return nil
}

func (r *txRepository) InsertAdjustment(ctx context.Context, adj Adjustment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_adjustments (product_id, adjustment_type, quantity_change, old_quantity, new_quantity, reason, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`, adj.ProductID, string(adj.AdjustmentType), adj.QuantityChange, adj.OldQuantity, adj.NewQuantity, adj.Reason, adj.UserID, adj.CreatedAt).Scan(&id)
	return id, err
}
