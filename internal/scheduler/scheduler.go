package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dav-92/catfoodbot/internal/tracker"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type Config struct {
	CheckInterval   time.Duration
	CleanupInterval time.Duration
	CleanupDelay    time.Duration
	Retention       time.Duration
}

// Pruner is the slice of the product use case the cleanup job needs.
type Pruner interface {
	PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler fires the scrape-and-match pipeline on a fixed interval and the
// history cleanup on a slower one, the first cleanup delayed from process
// start. Manual triggers share the in-flight run (single-flight): a trigger
// while a cycle is active joins that cycle and returns its result instead of
// starting a second one.
type Scheduler struct {
	tracker *tracker.Tracker
	pruner  Pruner
	cfg     Config
	logger  logger.ZapLogger

	group singleflight.Group

	mu          sync.RWMutex
	nextCheck   time.Time
	nextCleanup time.Time
}

func New(t *tracker.Tracker, pruner Pruner, cfg Config, log logger.ZapLogger) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &Scheduler{
		tracker: t,
		pruner:  pruner,
		cfg:     cfg,
		logger:  log,
	}
}

// Run blocks until ctx is cancelled. The first check fires immediately; the
// first cleanup fires after CleanupDelay so it does not contend with the
// initial check.
func (s *Scheduler) Run(ctx context.Context) {
	checkTicker := time.NewTicker(s.cfg.CheckInterval)
	defer checkTicker.Stop()

	cleanupDelay := s.cfg.CleanupDelay
	if cleanupDelay <= 0 {
		cleanupDelay = 10 * time.Minute
	}
	firstCleanup := time.NewTimer(cleanupDelay)
	defer firstCleanup.Stop()

	var cleanupTicker *time.Ticker
	var cleanupC <-chan time.Time

	s.setNextCheck(time.Now())
	s.setNextCleanup(time.Now().Add(cleanupDelay))

	s.logger.Info("scheduler started",
		zap.Duration("check_interval", s.cfg.CheckInterval),
		zap.Duration("cleanup_interval", s.cfg.CleanupInterval),
	)

	// First pass right away.
	s.runCheck(ctx)
	s.setNextCheck(time.Now().Add(s.cfg.CheckInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			if cleanupTicker != nil {
				cleanupTicker.Stop()
			}
			return

		case <-checkTicker.C:
			s.runCheck(ctx)
			s.setNextCheck(time.Now().Add(s.cfg.CheckInterval))

		case <-firstCleanup.C:
			s.runCleanup(ctx)
			cleanupTicker = time.NewTicker(s.cfg.CleanupInterval)
			cleanupC = cleanupTicker.C
			s.setNextCleanup(time.Now().Add(s.cfg.CleanupInterval))

		case <-cleanupC:
			s.runCleanup(ctx)
			s.setNextCleanup(time.Now().Add(s.cfg.CleanupInterval))
		}
	}
}

// TriggerNow runs the pipeline outside the schedule. If a run is already in
// flight the call joins it and returns that run's stats.
func (s *Scheduler) TriggerNow(ctx context.Context) (*tracker.CycleStats, error) {
	v, err, shared := s.group.Do("cycle", func() (interface{}, error) {
		return s.tracker.RunCycle(ctx)
	})
	if shared {
		s.logger.Info("manual trigger joined in-flight run")
	}
	if v == nil {
		return nil, err
	}
	return v.(*tracker.CycleStats), err
}

func (s *Scheduler) runCheck(ctx context.Context) {
	if _, err := s.TriggerNow(ctx); err != nil {
		s.logger.Error("scheduled check failed", zap.Error(err))
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	removed, err := s.pruner.PruneHistory(ctx, s.cfg.Retention)
	if err != nil {
		s.logger.Error("history cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("history cleanup complete", zap.Int64("removed", removed))
}

func (s *Scheduler) setNextCheck(t time.Time)   { s.mu.Lock(); s.nextCheck = t; s.mu.Unlock() }
func (s *Scheduler) setNextCleanup(t time.Time) { s.mu.Lock(); s.nextCleanup = t; s.mu.Unlock() }

// NextRuns reports the upcoming check and cleanup times for the status
// surface.
func (s *Scheduler) NextRuns() (check, cleanup time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextCheck, s.nextCleanup
}
