// Package alertstore holds the current alert snapshot. The store is the only
// writer; readers get immutable snapshots that are swapped atomically on
// every regeneration.
package alertstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Source produces a full replacement set of alerts.
type Source interface {
	FetchActiveAlerts(ctx context.Context) ([]domain.Alert, error)
}

// Snapshot is an immutable view of the alert set. Callers must not modify
// the Alerts slice.
type Snapshot struct {
	Alerts    []domain.Alert
	FetchedAt time.Time
	// Stale is set when the latest regeneration failed and Alerts is the
	// last good set.
	Stale     bool
	LastError string
	Skipped   int
}

// ListActive returns the alerts still active at now.
func (s *Snapshot) ListActive(now time.Time) []domain.Alert {
	return domain.FilterActive(s.Alerts, now)
}

// Store owns the current alert snapshot.
type Store struct {
	source  Source
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex // serializes Regenerate
	current atomic.Pointer[Snapshot]
}

// New creates a Store with an empty snapshot.
func New(source Source, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	s := &Store{
		source:  source,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
	s.current.Store(&Snapshot{})
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// ListActive returns the alerts in the current snapshot that are active at now.
func (s *Store) ListActive(now time.Time) []domain.Alert {
	return s.Current().ListActive(now)
}

// Regenerate replaces the snapshot with a fresh set from the source. On
// failure the previous alerts are kept, the snapshot is marked stale, and an
// error wrapping domain.ErrSourceUnavailable is returned.
func (s *Store) Regenerate(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.source.FetchActiveAlerts(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		prev := s.current.Load()
		stale := &Snapshot{
			Alerts:    prev.Alerts,
			FetchedAt: prev.FetchedAt,
			Stale:     true,
			LastError: err.Error(),
			Skipped:   prev.Skipped,
		}
		s.current.Store(stale)
		s.metrics.SourceStale.Set(1)
		s.metrics.Regenerations.WithLabelValues("error").Inc()
		s.logger.Warn("alert regeneration failed, keeping last good snapshot",
			"error", err,
			"alert_count", len(prev.Alerts),
		)
		return stale, err
	}

	valid := make([]domain.Alert, 0, len(alerts))
	skipped := 0
	for _, a := range alerts {
		if verr := a.Validate(); verr != nil {
			skipped++
			s.logger.Warn("skipping malformed alert", "alert_id", a.ID, "error", verr)
			continue
		}
		valid = append(valid, a)
	}

	now := s.clock.Now().UTC()
	snap := &Snapshot{
		Alerts:    valid,
		FetchedAt: now,
		Skipped:   skipped,
	}
	s.current.Store(snap)

	active := len(snap.ListActive(now))
	s.metrics.SourceStale.Set(0)
	s.metrics.Regenerations.WithLabelValues("success").Inc()
	s.metrics.SkippedAlerts.Add(float64(skipped))
	s.metrics.ActiveAlerts.Set(float64(active))
	s.logger.Info("alert snapshot regenerated", "alert_count", len(valid), "active", active, "skipped", skipped)
	return snap, nil
}
