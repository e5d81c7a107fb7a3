package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
)

const DefaultSessionRetention = 30 * 24 * time.Hour

// HousekeepingService periodically deletes dead sessions and unused expired
// invites so the tables do not grow without bound.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration
	Metrics   *metricsx.Metrics
	Now       Clock

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service. If interval is
// 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	st store.Store,
	logger *slog.Logger,
	interval, retention time.Duration,
	metrics *metricsx.Metrics,
) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = DefaultSessionRetention
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		Metrics:   metrics,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started",
		slog.Duration("interval", s.Interval),
		slog.Duration("retention", s.Retention),
	)
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

// Cleanup runs one sweep. Each deletion is independent; a failure in one
// does not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	cutoff := s.Now.now().Add(-s.Retention)
	s.Logger.Debug("starting housekeeping cleanup", slog.Time("cutoff", cutoff))

	sessions, err := s.Store.Sessions().DeleteStaleSessions(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete stale sessions", slog.Any("error", err))
	}
	s.Metrics.Purged("sessions", sessions)

	invites, err := s.Store.Invites().DeleteExpiredInvites(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete expired invites", slog.Any("error", err))
	}
	s.Metrics.Purged("invites", invites)

	s.Logger.Info("housekeeping cleanup completed",
		slog.Int64("sessions_deleted", sessions),
		slog.Int64("invites_deleted", invites),
	)
}
