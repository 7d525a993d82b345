package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/preferences/dto"
	productdto "github.com/dav-92/catfoodbot/internal/product/dto"
	"github.com/dav-92/catfoodbot/internal/scraper"
	"github.com/dav-92/catfoodbot/internal/tracker"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

// slowAdapter counts fetches and holds each one long enough for concurrent
// triggers to pile up behind it.
type slowAdapter struct {
	calls int32
	delay time.Duration
}

func (a *slowAdapter) Site() string { return "zooplus" }

func (a *slowAdapter) FetchAndParse(ctx context.Context) ([]scraper.ScrapedProduct, error) {
	atomic.AddInt32(&a.calls, 1)
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
	}
	return nil, nil
}

type stubProducts struct{}

func (stubProducts) UpsertBatch(_ context.Context, _ []scraper.ScrapedProduct) *productdto.UpsertReport {
	return &productdto.UpsertReport{}
}
func (stubProducts) GetProduct(_ context.Context, _ string) (*model.Product, error) { return nil, nil }
func (stubProducts) ListProducts(_ context.Context, _ *productdto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}
func (stubProducts) GetPriceHistory(_ context.Context, _ string, _ int) ([]model.PriceHistory, error) {
	return nil, nil
}
func (stubProducts) CurrentProducts(_ context.Context, _ time.Duration) ([]model.Product, error) {
	return nil, nil
}
func (stubProducts) PruneHistory(_ context.Context, _ time.Duration) (int64, error) { return 0, nil }
func (stubProducts) DataFreshness(_ context.Context) (*time.Time, error)            { return nil, nil }

type stubPrefs struct{}

func (stubPrefs) GetOrCreate(_ context.Context, _ string) (*model.UserPreferences, error) {
	return nil, nil
}
func (stubPrefs) Update(_ context.Context, _ *dto.UpdatePreferencesInput) (*model.UserPreferences, error) {
	return nil, nil
}
func (stubPrefs) AddBrand(_ context.Context, _, _ string) (*model.UserPreferences, error) {
	return nil, nil
}
func (stubPrefs) RemoveBrand(_ context.Context, _, _ string) (*model.UserPreferences, error) {
	return nil, nil
}
func (stubPrefs) AllEnabled(_ context.Context) ([]model.UserPreferences, error) { return nil, nil }

type stubAlerts struct{}

func (stubAlerts) ShouldAlert(_ context.Context, _, _ string, _ float64) (bool, error) {
	return false, nil
}
func (stubAlerts) RecordAlert(_ context.Context, _, _ string, _ float64) error { return nil }
func (stubAlerts) Reset(_ context.Context, _ string) (int64, error)            { return 0, nil }

type countingPruner struct {
	calls int32
}

func (p *countingPruner) PruneHistory(_ context.Context, _ time.Duration) (int64, error) {
	atomic.AddInt32(&p.calls, 1)
	return 0, nil
}

func newTestTracker(adapter scraper.Adapter) *tracker.Tracker {
	log := logger.NewNop()
	orchestrator := scraper.NewOrchestrator([]scraper.Adapter{adapter}, time.Second, log)
	return tracker.New(orchestrator, stubProducts{}, stubPrefs{}, stubAlerts{}, nil, log)
}

func TestTriggerNowJoinsInFlightRun(t *testing.T) {
	adapter := &slowAdapter{delay: 100 * time.Millisecond}
	s := New(newTestTracker(adapter), &countingPruner{}, Config{}, logger.NewNop())

	const concurrent = 5
	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TriggerNow(context.Background()); err != nil {
				t.Errorf("TriggerNow: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&adapter.calls); got != 1 {
		t.Errorf("adapter fetched %d times, want 1 for concurrent triggers", got)
	}
}

func TestTriggerNowRunsAgainAfterCompletion(t *testing.T) {
	adapter := &slowAdapter{delay: time.Millisecond}
	s := New(newTestTracker(adapter), &countingPruner{}, Config{}, logger.NewNop())

	if _, err := s.TriggerNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.TriggerNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&adapter.calls); got != 2 {
		t.Errorf("adapter fetched %d times, want 2 for sequential triggers", got)
	}
}

func TestRunFiresImmediateCheckAndDelayedCleanup(t *testing.T) {
	adapter := &slowAdapter{delay: time.Millisecond}
	pruner := &countingPruner{}
	s := New(newTestTracker(adapter), pruner, Config{
		CheckInterval:   time.Hour,
		CleanupInterval: time.Hour,
		CleanupDelay:    20 * time.Millisecond,
	}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if got := atomic.LoadInt32(&adapter.calls); got != 1 {
		t.Errorf("check ran %d times, want the one immediate run", got)
	}
	if got := atomic.LoadInt32(&pruner.calls); got != 1 {
		t.Errorf("cleanup ran %d times, want 1 after the delay", got)
	}

	nextCheck, nextCleanup := s.NextRuns()
	if nextCheck.IsZero() || nextCleanup.IsZero() {
		t.Error("NextRuns not populated")
	}
}
