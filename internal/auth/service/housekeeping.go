package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
)

// HousekeepingService periodically removes expired refresh tokens of every
// principal kind and sweeps idle rate-limit buckets.
type HousekeepingService struct {
	Refresh  *RefreshService
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour. limiter may be nil.
func NewHousekeepingService(refresh *RefreshService, limiter *ratelimit.Limiter, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Refresh:  refresh,
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass and returns the number of refresh tokens removed.
// A failure for one kind does not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var total int64
	for _, kind := range domain.Kinds {
		n, err := s.Refresh.DeleteExpired(ctx, kind, now)
		if err != nil {
			s.Logger.Error("failed to delete expired refresh tokens", "kind", kind, "error", err)
			continue
		}
		s.Logger.Debug("deleted expired refresh tokens", "kind", kind, "count", n)
		total += n
	}

	var buckets int
	if s.Limiter != nil {
		buckets = s.Limiter.Cleanup()
	}

	s.Logger.Info("housekeeping cleanup completed",
		"refresh_tokens_deleted", total,
		"rate_limit_buckets_evicted", buckets,
	)
	return total
}
