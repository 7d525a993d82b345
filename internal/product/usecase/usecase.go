package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/product"
	"github.com/dav-92/catfoodbot/internal/product/dto"
	"github.com/dav-92/catfoodbot/internal/scraper"
	"github.com/dav-92/catfoodbot/pkg/cache"
	"github.com/dav-92/catfoodbot/pkg/logger"
	"github.com/dav-92/catfoodbot/pkg/search"
)

const productsIndex = "products"

// Prices are euros with cent precision; anything below half a cent is the
// same price.
const priceEpsilon = 0.005

type productUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

// UpsertBatch applies one scrape batch. Every item is processed on its own:
// a persistence failure is recorded in the report and the remaining items
// continue. New products get an initial history entry; a changed price (in
// either direction) updates the product and appends history; an unchanged
// price only refreshes last_seen_at.
func (uc *productUseCase) UpsertBatch(ctx context.Context, scraped []scraper.ScrapedProduct) *dto.UpsertReport {
	report := &dto.UpsertReport{}
	now := time.Now().UTC()

	for _, sp := range scraped {
		outcome, err := uc.upsertOne(ctx, sp, now)
		if err != nil {
			uc.logger.Error("product upsert failed",
				zap.String("site", sp.Site),
				zap.String("external_id", sp.ExternalID),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, dto.UpsertFailure{
				Site:       sp.Site,
				ExternalID: sp.ExternalID,
				Error:      err.Error(),
			})
			continue
		}
		switch outcome {
		case outcomeCreated:
			report.Created++
		case outcomePriceChanged:
			report.PriceChanged++
		default:
			report.Unchanged++
		}
	}

	go uc.invalidateListCache(context.Background())
	return report
}

type upsertOutcome int

const (
	outcomeCreated upsertOutcome = iota
	outcomePriceChanged
	outcomeUnchanged
)

func (uc *productUseCase) upsertOne(ctx context.Context, sp scraper.ScrapedProduct, now time.Time) (upsertOutcome, error) {
	existing, err := uc.repo.FindBySiteExternalID(ctx, sp.Site, sp.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("lookup: %w", err)
	}

	unitPrice := scraper.UnitPrice(sp.Price, sp.Size, sp.Name)

	if existing == nil {
		p := &model.Product{
			BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			Site:          sp.Site,
			ExternalID:    sp.ExternalID,
			BaseProductID: optional(sp.BaseProductID),
			VariantName:   optional(sp.VariantName),
			Name:          sp.Name,
			Brand:         sp.Brand,
			Size:          optional(sp.Size),
			URL:           sp.URL,
			Price:         sp.Price,
			UnitPrice:     unitPrice,
			Currency:      "EUR",
			LastSeenAt:    now,
		}
		if err := uc.repo.Create(ctx, p); err != nil {
			return 0, fmt.Errorf("create: %w", err)
		}
		if err := uc.insertHistory(ctx, p.ID, sp, unitPrice, now); err != nil {
			return 0, fmt.Errorf("initial history: %w", err)
		}
		go uc.syncToElastic(context.Background(), p)
		return outcomeCreated, nil
	}

	if math.Abs(existing.Price-sp.Price) < priceEpsilon {
		if err := uc.repo.TouchLastSeen(ctx, existing.ID, now); err != nil {
			return 0, fmt.Errorf("touch: %w", err)
		}
		return outcomeUnchanged, nil
	}

	existing.Name = sp.Name
	if sp.Brand != "" {
		existing.Brand = sp.Brand
	}
	if sp.Size != "" {
		existing.Size = &sp.Size
	}
	if sp.BaseProductID != "" {
		existing.BaseProductID = &sp.BaseProductID
	}
	if sp.VariantName != "" {
		existing.VariantName = &sp.VariantName
	}
	existing.URL = sp.URL
	existing.Price = sp.Price
	existing.UnitPrice = unitPrice
	existing.LastSeenAt = now
	existing.UpdatedAt = now

	if err := uc.repo.UpdateObserved(ctx, existing); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	if err := uc.insertHistory(ctx, existing.ID, sp, unitPrice, now); err != nil {
		return 0, fmt.Errorf("history: %w", err)
	}
	go uc.syncToElastic(context.Background(), existing)
	return outcomePriceChanged, nil
}

func (uc *productUseCase) insertHistory(ctx context.Context, productID string, sp scraper.ScrapedProduct, unitPrice *float64, now time.Time) error {
	return uc.repo.InsertPriceHistory(ctx, &model.PriceHistory{
		ID:         uuid.New().String(),
		ProductID:  productID,
		Price:      sp.Price,
		UnitPrice:  unitPrice,
		IsOnSale:   sp.IsOnSale,
		SaleTag:    optional(sp.SaleTag),
		RecordedAt: now,
	})
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		products, count, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}
	return products, count, nil
}

func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
				"fields": []string{"name^3", "brand^2", "site"},
			},
		},
	}
	if filters.PageSize > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, productsIndex, q)
	if err != nil {
		return nil, 0, err
	}
	var products []model.Product
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) GetPriceHistory(ctx context.Context, productID string, limit int) ([]model.PriceHistory, error) {
	return uc.repo.FindHistory(ctx, productID, limit)
}

// CurrentProducts returns listings observed within maxStaleness, the input
// the deal matcher operates on.
func (uc *productUseCase) CurrentProducts(ctx context.Context, maxStaleness time.Duration) ([]model.Product, error) {
	return uc.repo.FindSeenSince(ctx, time.Now().UTC().Add(-maxStaleness))
}

func (uc *productUseCase) PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error) {
	removed, err := uc.repo.PruneHistory(ctx, maxAge)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		uc.logger.Info("pruned price history", zap.Int64("removed", removed))
	}
	return removed, nil
}

func (uc *productUseCase) DataFreshness(ctx context.Context) (*time.Time, error) {
	return uc.repo.DataFreshness(ctx)
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	mapping := `{
		"mappings": {
			"properties": {
				"site": { "type": "keyword" },
				"external_id": { "type": "keyword" },
				"name": { "type": "text" },
				"brand": { "type": "text" },
				"price": { "type": "double" },
				"unit_price": { "type": "double" },
				"last_seen_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productsIndex, mapping)

	if err := uc.es.Index(ctx, productsIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.Error(err))
	}
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
