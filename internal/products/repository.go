package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads product stock from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStock fetches the current stock_quantity of a product.
func (r *Repository) GetStock(ctx context.Context, productID int64) (StockLevel, error) {
	if r == nil {
		return StockLevel{}, errors.New("products repository not initialised")
	}
	var level StockLevel
	err := r.pool.QueryRow(ctx, `SELECT id, stock_quantity, min_stock_level FROM products WHERE id=$1`, productID).
		Scan(&level.ProductID, &level.StockQuantity, &level.MinStockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, NotFound(productID)
		}
		return StockLevel{}, err
	}
	return level, nil
}
