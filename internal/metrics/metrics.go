package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the roster service.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Store Metrics
	BatchCommitsTotal  *prometheus.CounterVec
	BatchCommitErrors  *prometheus.CounterVec
	SnapshotsDelivered *prometheus.CounterVec
	SubscriptionErrors *prometheus.CounterVec

	// Business Metrics
	GuestsIngestedTotal  *prometheus.CounterVec
	GuestsSkippedTotal   prometheus.Counter
	CheckinTransitions   *prometheus.CounterVec
	HistoryEntriesLogged prometheus.Counter
	ActiveConsoles       prometheus.Gauge
}

// NewMetricsRegistry registers every metric against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poolroster_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poolroster_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method"},
		),

		BatchCommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_store_batch_commits_total",
				Help: "Batched writes committed to the store by collection",
			},
			[]string{"collection"},
		),
		BatchCommitErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_store_batch_commit_errors_total",
				Help: "Batched writes that failed to commit by collection",
			},
			[]string{"collection"},
		),
		SnapshotsDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_store_snapshots_delivered_total",
				Help: "Full-collection snapshots delivered to subscribers",
			},
			[]string{"collection"},
		),
		SubscriptionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_store_subscription_errors_total",
				Help: "Snapshot refreshes that failed and were reported to subscribers",
			},
			[]string{"collection"},
		),

		GuestsIngestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_guests_ingested_total",
				Help: "Guest records written by ingestion mode",
			},
			[]string{"mode"},
		),
		GuestsSkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "poolroster_guests_skipped_total",
				Help: "Candidates skipped because their reservation code was already present",
			},
		),
		CheckinTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolroster_checkin_transitions_total",
				Help: "Check-in state machine transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		HistoryEntriesLogged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "poolroster_history_entries_logged_total",
				Help: "History summaries archived before full replacements",
			},
		),
		ActiveConsoles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "poolroster_active_consoles",
				Help: "Staff console sessions currently held in memory",
			},
		),
	}
}

func (m *MetricsRegistry) BatchCommitted(collection string) {
	if m == nil {
		return
	}
	m.BatchCommitsTotal.WithLabelValues(collection).Inc()
}

func (m *MetricsRegistry) BatchFailed(collection string) {
	if m == nil {
		return
	}
	m.BatchCommitErrors.WithLabelValues(collection).Inc()
}

func (m *MetricsRegistry) SnapshotDelivered(collection string, subscribers int) {
	if m == nil || subscribers <= 0 {
		return
	}
	m.SnapshotsDelivered.WithLabelValues(collection).Add(float64(subscribers))
}

func (m *MetricsRegistry) SubscriptionFailed(collection string) {
	if m == nil {
		return
	}
	m.SubscriptionErrors.WithLabelValues(collection).Inc()
}

func (m *MetricsRegistry) GuestsIngested(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GuestsIngestedTotal.WithLabelValues(mode).Add(float64(n))
}

func (m *MetricsRegistry) GuestsSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GuestsSkippedTotal.Add(float64(n))
}

func (m *MetricsRegistry) Transition(from, to string) {
	if m == nil {
		return
	}
	m.CheckinTransitions.WithLabelValues(from, to).Inc()
}

func (m *MetricsRegistry) HistoryLogged() {
	if m == nil {
		return
	}
	m.HistoryEntriesLogged.Inc()
}

func (m *MetricsRegistry) ConsoleOpened() {
	if m == nil {
		return
	}
	m.ActiveConsoles.Inc()
}

func (m *MetricsRegistry) ConsoleClosed() {
	if m == nil {
		return
	}
	m.ActiveConsoles.Dec()
}
