package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/alertstore"
	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// AlertStore regenerates and serves the alert snapshot.
type AlertStore interface {
	Regenerate(ctx context.Context) (*alertstore.Snapshot, error)
	Current() *alertstore.Snapshot
}

// LocationRegistry supplies locations to classify and accepts the results.
type LocationRegistry interface {
	List() []domain.Location
	Apply(ctx context.Context, updated []domain.Location) int
}

// ChangeNotifier publishes committed risk changes.
type ChangeNotifier interface {
	NotifyRiskChanges(ctx context.Context, changes []domain.RiskChange) error
}

// Report summarizes one reconciliation pass.
type Report struct {
	Changes      []domain.RiskChange
	Unclassified int
	ActiveAlerts int
	Stale        bool
	CompletedAt  time.Time
}

// Status describes the most recent refresh.
type Status struct {
	LastRefresh  time.Time
	Stale        bool
	LastError    string
	ActiveAlerts int
}

// Pipeline keeps location risk levels in step with the alert snapshot.
// Passes are serialized: each reads the snapshot, classifies every location
// and commits the results before the next one starts. Fetching alerts and
// publishing changes happen outside the pass lock.
type Pipeline struct {
	store    AlertStore
	registry LocationRegistry
	notifier ChangeNotifier
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration

	mu          sync.Mutex    // serializes passes
	lastPublish chan struct{} // closed when the latest batch is published; guarded by mu
	ready       atomic.Bool
}

// New creates a Pipeline. A nil notifier discards changes.
func New(store AlertStore, registry LocationRegistry, notifier ChangeNotifier, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	published := make(chan struct{})
	close(published)
	return &Pipeline{
		store:       store,
		registry:    registry,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
		lastPublish: published,
	}
}

// CheckReadiness returns nil once an alert snapshot has been generated
// successfully at least once.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no alert snapshot generated yet")
	}
	return nil
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	_, _ = p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			_, _ = p.Refresh(ctx)
		}
	}
}

// Refresh regenerates the alert snapshot and reconciles every location
// against it. When the source fails the pass still runs against the last
// good snapshot and the returned error wraps domain.ErrSourceUnavailable.
func (p *Pipeline) Refresh(ctx context.Context) (Report, error) {
	_, err := p.store.Regenerate(ctx)
	if err == nil {
		p.ready.Store(true)
	}
	return p.pass(ctx), err
}

// Reconcile re-classifies every location against the current snapshot
// without regenerating it. Used after the location set changes.
func (p *Pipeline) Reconcile(ctx context.Context) Report {
	return p.pass(ctx)
}

// pass commits one reconciliation under mu and publishes its changes after
// releasing it. Each batch waits for the one committed before it, so batches
// go out in commit order without a slow publish holding up later passes.
func (p *Pipeline) pass(ctx context.Context) Report {
	p.mu.Lock()
	report := p.reconcile(ctx, p.store.Current())
	if len(report.Changes) == 0 {
		p.mu.Unlock()
		return report
	}
	prev, done := p.lastPublish, make(chan struct{})
	p.lastPublish = done
	p.mu.Unlock()

	defer close(done)
	<-prev

	// Commit is final; a failed publish is only recorded.
	if err := p.notifier.NotifyRiskChanges(ctx, report.Changes); err != nil {
		p.metrics.NotifyErrors.Inc()
		p.logger.Error("publish risk changes failed", "error", err, "change_count", len(report.Changes))
	}
	return report
}

// Assessment is a location classified without being saved.
type Assessment struct {
	Location  domain.Location
	Affecting []domain.Alert
}

// Assess classifies locations against the current snapshot without
// committing anything.
func (p *Pipeline) Assess(locations []domain.Location) []Assessment {
	now := p.clock.Now().UTC()
	active := p.store.Current().ListActive(now)
	res := domain.Reconcile(locations, active, now)

	out := make([]Assessment, len(res.Locations))
	for i, loc := range res.Locations {
		out[i].Location = loc
		if loc.Position != nil {
			out[i].Affecting = domain.Classify(*loc.Position, active).Affecting
		}
	}
	return out
}

// ActiveAlerts returns the alerts in the current snapshot that have not
// expired.
func (p *Pipeline) ActiveAlerts() []domain.Alert {
	return p.store.Current().ListActive(p.clock.Now())
}

// Status reports on the current snapshot.
func (p *Pipeline) Status() Status {
	snap := p.store.Current()
	return Status{
		LastRefresh:  snap.FetchedAt,
		Stale:        snap.Stale,
		LastError:    snap.LastError,
		ActiveAlerts: len(snap.ListActive(p.clock.Now())),
	}
}

// reconcile must be called with mu held.
func (p *Pipeline) reconcile(ctx context.Context, snap *alertstore.Snapshot) Report {
	start := p.clock.Now()
	now := start.UTC()
	active := snap.ListActive(now)

	res := domain.Reconcile(p.registry.List(), active, now)

	if len(res.Changes) > 0 {
		changed := make(map[string]bool, len(res.Changes))
		for _, c := range res.Changes {
			changed[c.LocationID] = true
		}
		updated := make([]domain.Location, 0, len(res.Changes))
		for _, loc := range res.Locations {
			if changed[loc.ID] {
				updated = append(updated, loc)
			}
		}
		p.registry.Apply(ctx, updated)

		for _, c := range res.Changes {
			p.metrics.RiskChanges.WithLabelValues(c.Current.String()).Inc()
			p.logger.Info("location risk changed",
				"location_id", c.LocationID,
				"previous", c.Previous.String(),
				"current", c.Current.String(),
			)
		}
	}

	p.recordLocationGauges(res)
	p.metrics.ReconcileDuration.Observe(p.clock.Since(start).Seconds())
	p.logger.Debug("reconciliation complete",
		"location_count", len(res.Locations),
		"change_count", len(res.Changes),
		"alert_count", len(active),
		"stale", snap.Stale,
	)

	return Report{
		Changes:      res.Changes,
		Unclassified: res.Unclassified,
		ActiveAlerts: len(active),
		Stale:        snap.Stale,
		CompletedAt:  now,
	}
}

func (p *Pipeline) recordLocationGauges(res domain.ReconcileResult) {
	counts := map[string]int{"low": 0, "medium": 0, "high": 0}
	for _, loc := range res.Locations {
		if loc.Position == nil {
			continue
		}
		counts[loc.RiskLevel.String()]++
	}
	for risk, n := range counts {
		p.metrics.LocationsByRisk.WithLabelValues(risk).Set(float64(n))
	}
	p.metrics.LocationsByRisk.WithLabelValues("unclassified").Set(float64(res.Unclassified))
}

// NopNotifier discards risk changes.
type NopNotifier struct{}

func (NopNotifier) NotifyRiskChanges(context.Context, []domain.RiskChange) error { return nil }
