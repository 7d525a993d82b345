package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/product/dto"
	"github.com/dav-92/catfoodbot/internal/scraper"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type fakeProductRepo struct {
	products  map[string]*model.Product // keyed site|external_id
	history   []model.PriceHistory
	failSites map[string]bool // sites whose writes fail
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:  map[string]*model.Product{},
		failSites: map[string]bool{},
	}
}

func (r *fakeProductRepo) key(site, externalID string) string { return site + "|" + externalID }

func (r *fakeProductRepo) FindBySiteExternalID(_ context.Context, site, externalID string) (*model.Product, error) {
	p, ok := r.products[r.key(site, externalID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if r.failSites[p.Site] {
		return errors.New("insert failed")
	}
	cp := *p
	r.products[r.key(p.Site, p.ExternalID)] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateObserved(_ context.Context, p *model.Product) error {
	if r.failSites[p.Site] {
		return errors.New("update failed")
	}
	cp := *p
	r.products[r.key(p.Site, p.ExternalID)] = &cp
	return nil
}

func (r *fakeProductRepo) TouchLastSeen(_ context.Context, id string, seenAt time.Time) error {
	for _, p := range r.products {
		if p.ID == id {
			p.LastSeenAt = seenAt
			return nil
		}
	}
	return errors.New("not found")
}

func (r *fakeProductRepo) InsertPriceHistory(_ context.Context, h *model.PriceHistory) error {
	r.history = append(r.history, *h)
	return nil
}

func (r *fakeProductRepo) FindHistory(_ context.Context, productID string, _ int) ([]model.PriceHistory, error) {
	var out []model.PriceHistory
	for _, h := range r.history {
		if h.ProductID == productID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) PruneHistory(_ context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	kept := r.history[:0]
	var removed int64
	for _, h := range r.history {
		if h.RecordedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	r.history = kept
	return removed, nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ *dto.ProductFilters) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) FindSeenSince(_ context.Context, since time.Time) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if !p.LastSeenAt.Before(since) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) DataFreshness(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	for _, h := range r.history {
		t := h.RecordedAt
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

func observation(site, id string, price float64) scraper.ScrapedProduct {
	return scraper.ScrapedProduct{
		Site:       site,
		ExternalID: id,
		Name:       "Feringa Adult 800 g",
		Brand:      "Feringa",
		Size:       "800 g",
		URL:        "https://" + site + ".example/" + id,
		Price:      price,
	}
}

func TestUpsertBatchCreatesNewProducts(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	report := uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{
		observation("zooplus", "1", 3.99),
		observation("bitiba", "2", 4.49),
	})

	if report.Created != 2 || report.PriceChanged != 0 || report.Unchanged != 0 {
		t.Errorf("report = %+v, want 2 created", report)
	}
	if len(repo.history) != 2 {
		t.Errorf("got %d history rows, want one initial entry per product", len(repo.history))
	}

	p, _ := repo.FindBySiteExternalID(context.Background(), "zooplus", "1")
	if p == nil {
		t.Fatal("product not persisted")
	}
	if p.UnitPrice == nil {
		t.Fatal("unit price not derived from size")
	}
	if got := *p.UnitPrice; got < 4.98 || got > 4.99 {
		t.Errorf("unit price = %v, want 3.99/0.8 rounded to cents", got)
	}
}

// A second identical batch must be a no-op apart from freshness: no new
// rows, no history growth.
func TestUpsertBatchIdempotent(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())
	batch := []scraper.ScrapedProduct{
		observation("zooplus", "1", 3.99),
		observation("bitiba", "2", 4.49),
	}

	uc.UpsertBatch(context.Background(), batch)
	report := uc.UpsertBatch(context.Background(), batch)

	if report.Created != 0 || report.PriceChanged != 0 {
		t.Errorf("report = %+v, want all unchanged", report)
	}
	if report.Unchanged != 2 {
		t.Errorf("unchanged = %d, want 2", report.Unchanged)
	}
	if len(repo.products) != 2 {
		t.Errorf("got %d products, want 2", len(repo.products))
	}
	if len(repo.history) != 2 {
		t.Errorf("history grew to %d rows on an unchanged batch", len(repo.history))
	}
}

func TestUpsertBatchRecordsPriceChange(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{observation("zooplus", "1", 3.99)})
	report := uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{observation("zooplus", "1", 2.99)})

	if report.PriceChanged != 1 {
		t.Fatalf("report = %+v, want 1 price change", report)
	}
	p, _ := repo.FindBySiteExternalID(context.Background(), "zooplus", "1")
	if p.Price != 2.99 {
		t.Errorf("price = %v, want 2.99", p.Price)
	}
	history, _ := repo.FindHistory(context.Background(), p.ID, 10)
	if len(history) != 2 {
		t.Errorf("got %d history rows, want 2", len(history))
	}
}

// A price increase is a change too; history is the full trajectory, not
// just drops.
func TestUpsertBatchRecordsPriceIncrease(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{observation("zooplus", "1", 3.99)})
	report := uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{observation("zooplus", "1", 4.99)})

	if report.PriceChanged != 1 {
		t.Errorf("report = %+v, want 1 price change", report)
	}
}

func TestUpsertBatchIsolatesFailures(t *testing.T) {
	repo := newFakeProductRepo()
	repo.failSites["bitiba"] = true
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	report := uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{
		observation("zooplus", "1", 3.99),
		observation("bitiba", "2", 4.49),
		observation("zooroyal", "3", 5.49),
	})

	if report.Created != 2 {
		t.Errorf("created = %d, want 2 despite one failure", report.Created)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("failed = %+v, want exactly the bitiba item", report.Failed)
	}
	if report.Failed[0].Site != "bitiba" || report.Failed[0].ExternalID != "2" {
		t.Errorf("failed item = %+v, want bitiba/2", report.Failed[0])
	}
	if report.Total() != 3 {
		t.Errorf("total = %d, want 3", report.Total())
	}
}

func TestCurrentProductsExcludesStale(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	uc.UpsertBatch(context.Background(), []scraper.ScrapedProduct{observation("zooplus", "1", 3.99)})

	stale := &model.Product{
		BaseModel:  model.BaseModel{ID: "stale-1"},
		Site:       "bitiba",
		ExternalID: "old",
		Name:       "Old listing",
		Price:      9.99,
		LastSeenAt: time.Now().UTC().Add(-72 * time.Hour),
	}
	if err := repo.Create(context.Background(), stale); err != nil {
		t.Fatal(err)
	}

	current, err := uc.CurrentProducts(context.Background(), 48*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(current) != 1 {
		t.Fatalf("got %d current products, want 1", len(current))
	}
	if current[0].Site != "zooplus" {
		t.Errorf("current product = %+v, want the fresh zooplus one", current[0])
	}
}

func TestPruneHistoryRespectsRetention(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, logger.NewNop())

	now := time.Now().UTC()
	repo.history = []model.PriceHistory{
		{ID: "h1", ProductID: "p1", Price: 3.99, RecordedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "h2", ProductID: "p1", Price: 3.49, RecordedAt: now.Add(-2 * 24 * time.Hour)},
	}

	removed, err := uc.PruneHistory(context.Background(), 7*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(repo.history) != 1 || repo.history[0].ID != "h2" {
		t.Errorf("remaining history = %+v, want only h2", repo.history)
	}
}
