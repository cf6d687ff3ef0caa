package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "location_risk"

// Metrics holds the Prometheus collectors for the risk service.
type Metrics struct {
	// Alert snapshot metrics.
	Regenerations *prometheus.CounterVec // labels: outcome={success,error}
	ActiveAlerts  prometheus.Gauge
	SkippedAlerts prometheus.Counter
	SourceStale   prometheus.Gauge

	// Reconciliation metrics.
	PipelineRunning   prometheus.Gauge
	ReconcileDuration prometheus.Histogram
	RiskChanges       *prometheus.CounterVec // labels: current={low,medium,high}
	LocationsByRisk   *prometheus.GaugeVec   // labels: risk={low,medium,high,unclassified}
	NotifyErrors      prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
}

func newMetrics() *Metrics {
	return &Metrics{
		Regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_regenerations_total",
			Help:      "Alert snapshot regenerations by outcome.",
		}, []string{"outcome"}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Alerts in the current snapshot.",
		}),
		SkippedAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_alerts_total",
			Help:      "Malformed alert records dropped from snapshots.",
		}),
		SourceStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_source_stale",
			Help:      "1 when the last regeneration failed and the snapshot is stale.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of a reconciliation pass over all locations.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		RiskChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_changes_total",
			Help:      "Committed location classification changes by new risk level.",
		}, []string{"current"}),
		LocationsByRisk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locations",
			Help:      "Saved locations by current risk level.",
		}, []string{"risk"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      "Risk change notifications that could not be published.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Regenerations,
		m.ActiveAlerts,
		m.SkippedAlerts,
		m.SourceStale,
		m.PipelineRunning,
		m.ReconcileDuration,
		m.RiskChanges,
		m.LocationsByRisk,
		m.NotifyErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a throwaway registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
