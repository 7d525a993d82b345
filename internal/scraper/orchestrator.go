package scraper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dav-92/catfoodbot/pkg/logger"
)

type SiteStatus string

const (
	SiteOK        SiteStatus = "ok"
	SiteWarnEmpty SiteStatus = "warn_empty"
	SiteFailed    SiteStatus = "failed"
)

type SiteOutcome struct {
	Site     string        `json:"site"`
	Status   SiteStatus    `json:"status"`
	Error    string        `json:"error,omitempty"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
}

type BatchResult struct {
	Products []ScrapedProduct
	Outcomes []SiteOutcome
}

// AllFailed reports whether not a single site produced products.
func (r *BatchResult) AllFailed() bool {
	for _, o := range r.Outcomes {
		if o.Status != SiteFailed {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

type Orchestrator struct {
	adapters       []Adapter
	perSiteTimeout time.Duration
	logger         logger.ZapLogger
}

func NewOrchestrator(adapters []Adapter, perSiteTimeout time.Duration, log logger.ZapLogger) *Orchestrator {
	return &Orchestrator{
		adapters:       adapters,
		perSiteTimeout: perSiteTimeout,
		logger:         log,
	}
}

// RunBatch invokes every adapter concurrently, each under its own timeout.
// Site failures are recorded in the per-site outcome and never abort the
// batch; a timed-out adapter's partial result is discarded. An all-failed
// cycle still yields an empty batch with an all-failed report.
func (o *Orchestrator) RunBatch(ctx context.Context) *BatchResult {
	results := make([][]ScrapedProduct, len(o.adapters))
	outcomes := make([]SiteOutcome, len(o.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		g.Go(func() error {
			site := adapter.Site()
			start := time.Now()

			adapterCtx, cancel := context.WithTimeout(gctx, o.perSiteTimeout)
			defer cancel()

			products, err := o.runAdapter(adapterCtx, adapter)
			elapsed := time.Since(start)

			switch {
			case err != nil:
				o.logger.Warn("site scrape failed",
					zap.String("site", site),
					zap.Duration("duration", elapsed),
					zap.Error(err),
				)
				outcomes[i] = SiteOutcome{Site: site, Status: SiteFailed, Error: err.Error(), Duration: elapsed}
			case len(products) == 0:
				o.logger.Warn("site returned no products",
					zap.String("site", site),
					zap.Duration("duration", elapsed),
				)
				outcomes[i] = SiteOutcome{Site: site, Status: SiteWarnEmpty, Duration: elapsed}
			default:
				o.logger.Info("site scraped",
					zap.String("site", site),
					zap.Int("products", len(products)),
					zap.Duration("duration", elapsed),
				)
				results[i] = products
				outcomes[i] = SiteOutcome{Site: site, Status: SiteOK, Count: len(products), Duration: elapsed}
			}
			// Site failures must not cancel sibling adapters.
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{Outcomes: outcomes}
	for _, ps := range results {
		batch.Products = append(batch.Products, ps...)
	}
	return batch
}

// runAdapter isolates one adapter call so a timeout maps onto the scraper
// error taxonomy and a slow adapter cannot leak its stale result in.
func (o *Orchestrator) runAdapter(ctx context.Context, adapter Adapter) ([]ScrapedProduct, error) {
	type result struct {
		products []ScrapedProduct
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		products, err := adapter.FetchAndParse(ctx)
		ch <- result{products: products, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrSiteUnreachable
		}
		return nil, ctx.Err()
	case r := <-ch:
		return r.products, r.err
	}
}
