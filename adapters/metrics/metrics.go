// Package metrics provides Prometheus metrics collection for TeamLens.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for TeamLens.
type Collector struct {
	// Fetch metrics
	PagesFetched     prometheus.Counter
	RateLimitRetries prometheus.Counter
	EventsKept       prometheus.Counter
	EventsDropped    prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Delivery source metrics
	PullRequestsFetched prometheus.Counter
	IssuesFetched       prometheus.Counter

	// Pipeline metrics
	RunsTotal        *prometheus.CounterVec
	ReportsGenerated *prometheus.CounterVec
	LastRunUnix      *prometheus.GaugeVec
	PeriodsSkipped   prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on the given registerer.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "usage_pages_fetched_total",
			Help:      "Total usage event pages fetched from the Admin API",
		}),
		RateLimitRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "rate_limit_retries_total",
			Help:      "Total retries triggered by 429 responses",
		}),
		EventsKept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "usage_events_kept_total",
			Help:      "Usage events kept by the on-demand chargeable filter",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "usage_events_dropped_total",
			Help:      "Usage events dropped by the on-demand chargeable filter",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "cache_hits_total",
			Help:      "Periods served from the event cache without fetching",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "cache_misses_total",
			Help:      "Periods that required an API fetch",
		}),
		PullRequestsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "pull_requests_fetched_total",
			Help:      "Pull requests fetched from the source-control API",
		}),
		IssuesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "issues_fetched_total",
			Help:      "Issues fetched from the issue-tracker API",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "runs_total",
			Help:      "Analysis runs by pipeline and outcome",
		}, []string{"pipeline", "status"}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "reports_generated_total",
			Help:      "Dashboard files written by report type",
		}, []string{"report"}),
		LastRunUnix: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "teamlens",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run per pipeline",
		}, []string{"pipeline"}),
		PeriodsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlens",
			Name:      "periods_skipped_total",
			Help:      "Aggregation periods skipped because their cache was absent",
		}),
	}
}
