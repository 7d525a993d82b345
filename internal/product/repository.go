package product

import (
	"context"
	"time"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/product/dto"
)

type Repository interface {
	FindBySiteExternalID(ctx context.Context, site, externalID string) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	UpdateObserved(ctx context.Context, p *model.Product) error
	TouchLastSeen(ctx context.Context, id string, seenAt time.Time) error

	InsertPriceHistory(ctx context.Context, h *model.PriceHistory) error
	FindHistory(ctx context.Context, productID string, limit int) ([]model.PriceHistory, error)
	PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error)

	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	FindSeenSince(ctx context.Context, since time.Time) ([]model.Product, error)
	DataFreshness(ctx context.Context) (*time.Time, error)
}
