package products

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// sharedReadTimeout bounds a collapsed read once it no longer follows any caller.
const sharedReadTimeout = 5 * time.Second

// RepositoryPort abstracts stock lookups.
type RepositoryPort interface {
	GetStock(ctx context.Context, productID int64) (StockLevel, error)
}

// Service answers stock lookups, collapsing concurrent reads of the same product.
type Service struct {
	repo  RepositoryPort
	group singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetStock returns the current stock level of a product.
func (s *Service) GetStock(ctx context.Context, productID int64) (StockLevel, error) {
	if productID <= 0 {
		return StockLevel{}, shared.InvalidInput("product_id must be positive")
	}
	// The flight outlives the caller that started it; other callers may have joined.
	ch := s.group.DoChan(strconv.FormatInt(productID, 10), func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return s.repo.GetStock(readCtx, productID)
	})
	select {
	case <-ctx.Done():
		return StockLevel{}, shared.StorageError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return StockLevel{}, shared.StorageError(res.Err)
		}
		return res.Val.(StockLevel), nil
	}
}
