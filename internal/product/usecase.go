package product

import (
	"context"
	"time"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/product/dto"
	"github.com/dav-92/catfoodbot/internal/scraper"
)

type UseCase interface {
	// UpsertBatch persists one scrape batch with per-item failure isolation.
	UpsertBatch(ctx context.Context, scraped []scraper.ScrapedProduct) *dto.UpsertReport

	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	GetPriceHistory(ctx context.Context, productID string, limit int) ([]model.PriceHistory, error)
	CurrentProducts(ctx context.Context, maxStaleness time.Duration) ([]model.Product, error)

	PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error)
	DataFreshness(ctx context.Context) (*time.Time, error)
}
