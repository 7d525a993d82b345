package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/alert"
	"github.com/dav-92/catfoodbot/internal/deal"
	"github.com/dav-92/catfoodbot/internal/notifier"
	"github.com/dav-92/catfoodbot/internal/preferences"
	"github.com/dav-92/catfoodbot/internal/product"
	"github.com/dav-92/catfoodbot/internal/product/dto"
	"github.com/dav-92/catfoodbot/internal/scraper"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

// Listings older than this are treated as no longer on offer and excluded
// from matching.
const productStaleness = 48 * time.Hour

type CycleStats struct {
	StartedAt    time.Time             `json:"started_at"`
	Duration     time.Duration         `json:"duration"`
	SiteOutcomes []scraper.SiteOutcome `json:"site_outcomes"`
	Scraped      int                   `json:"scraped"`
	Upsert       *dto.UpsertReport     `json:"upsert"`
	UsersMatched int                   `json:"users_matched"`
	AlertsSent   int                   `json:"alerts_sent"`
}

// Tracker runs the scrape-and-match pipeline: orchestrate the site adapters,
// persist the batch, match each enabled user's preferences against current
// listings, dedup-filter and publish notifications.
type Tracker struct {
	orchestrator *scraper.Orchestrator
	products     product.UseCase
	prefs        preferences.UseCase
	alerts       alert.UseCase
	notifier     notifier.Notifier
	logger       logger.ZapLogger

	mu        sync.RWMutex
	lastStats *CycleStats
}

func New(
	orchestrator *scraper.Orchestrator,
	products product.UseCase,
	prefs preferences.UseCase,
	alerts alert.UseCase,
	n notifier.Notifier,
	log logger.ZapLogger,
) *Tracker {
	return &Tracker{
		orchestrator: orchestrator,
		products:     products,
		prefs:        prefs,
		alerts:       alerts,
		notifier:     n,
		logger:       log,
	}
}

// RunCycle executes one full pipeline pass. Site failures never abort the
// cycle: an all-failed batch still completes with zero new products and an
// all-failed site report.
func (t *Tracker) RunCycle(ctx context.Context) (*CycleStats, error) {
	start := time.Now()
	t.logger.Info("price check started")

	batch := t.orchestrator.RunBatch(ctx)
	report := t.products.UpsertBatch(ctx, batch.Products)

	stats := &CycleStats{
		StartedAt:    start.UTC(),
		SiteOutcomes: batch.Outcomes,
		Scraped:      len(batch.Products),
		Upsert:       report,
	}

	alertsSent, usersMatched, err := t.matchAndNotify(ctx)
	if err != nil {
		// Matching hit a store error; the scrape results are already
		// persisted, so report what happened and surface the error.
		stats.Duration = time.Since(start)
		t.setLastStats(stats)
		return stats, err
	}
	stats.AlertsSent = alertsSent
	stats.UsersMatched = usersMatched
	stats.Duration = time.Since(start)
	t.setLastStats(stats)

	t.logger.Info("price check complete",
		zap.Int("scraped", stats.Scraped),
		zap.Int("created", report.Created),
		zap.Int("price_changed", report.PriceChanged),
		zap.Int("failed_items", len(report.Failed)),
		zap.Int("alerts_sent", alertsSent),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (t *Tracker) matchAndNotify(ctx context.Context) (alertsSent, usersMatched int, err error) {
	users, err := t.prefs.AllEnabled(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(users) == 0 {
		return 0, 0, nil
	}

	current, err := t.products.CurrentProducts(ctx, productStaleness)
	if err != nil {
		return 0, 0, err
	}

	for _, prefs := range users {
		deals := deal.FindDeals(current, prefs)
		if len(deals) == 0 {
			continue
		}
		usersMatched++

		for _, g := range deal.GroupCheapest(deals) {
			ok, err := t.alerts.ShouldAlert(ctx, prefs.UserID, g.Product.ID, g.Product.Price)
			if err != nil {
				t.logger.Error("dedup lookup failed",
					zap.String("user_id", prefs.UserID),
					zap.String("product_id", g.Product.ID),
					zap.Error(err),
				)
				continue
			}
			if !ok {
				continue
			}

			// A publish failure does not revert the record: recording is
			// at-most-once, delivery is not guaranteed.
			if err := t.notifier.Notify(ctx, prefs.UserID, g); err != nil {
				t.logger.Error("notification publish failed",
					zap.String("user_id", prefs.UserID),
					zap.String("product_id", g.Product.ID),
					zap.Error(err),
				)
			}
			if err := t.alerts.RecordAlert(ctx, prefs.UserID, g.Product.ID, g.Product.Price); err != nil {
				t.logger.Error("failed to record alert",
					zap.String("user_id", prefs.UserID),
					zap.String("product_id", g.Product.ID),
					zap.Error(err),
				)
				continue
			}
			alertsSent++
		}
	}
	return alertsSent, usersMatched, nil
}

func (t *Tracker) setLastStats(stats *CycleStats) {
	t.mu.Lock()
	t.lastStats = stats
	t.mu.Unlock()
}

// LastStats returns the most recent cycle's stats, or nil before the first
// run.
func (t *Tracker) LastStats() *CycleStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastStats
}
