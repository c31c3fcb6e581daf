// Package metrics defines Prometheus metrics for flip-god.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fg"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last liveness probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last readiness probe succeeded, 0 otherwise.",
	})
)

// Cycle metrics.
var (
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of reprice cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	CycleListingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_listings_total",
		Help:      "Total number of listings examined by reprice cycles.",
	})

	CycleChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_changes_total",
		Help:      "Total number of price changes produced by reprice cycles.",
	}, []string{"dry_run"})

	CycleErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_errors_total",
		Help:      "Total number of per-listing errors during reprice cycles.",
	})
)

// Rule evaluation metrics.
var (
	RuleEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_evaluations_total",
		Help:      "Total number of rule evaluations by family and outcome.",
	}, []string{"family", "outcome"})

	GuardrailBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guardrail_blocks_total",
		Help:      "Total number of candidate prices blocked by guardrails.",
	}, []string{"reason"})
)

// Marketplace API metrics.
var (
	MarketplaceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_calls_total",
		Help:      "Total cumulative marketplace API calls.",
	}, []string{"platform", "op"})

	MarketplaceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_errors_total",
		Help:      "Total number of failed marketplace API calls.",
	}, []string{"platform", "op"})

	MarketplaceDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "marketplace_daily_usage",
		Help:      "Current marketplace API call count within the rolling 24-hour window.",
	})

	MarketplaceDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_daily_limit_hits_total",
		Help:      "Total number of calls rejected by the daily marketplace quota.",
	})
)

// Daemon metrics.
var (
	DaemonConfigsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daemon_configs_running",
		Help:      "Number of daemon configs with an active ticker loop.",
	})

	DaemonCyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daemon_cycles_skipped_total",
		Help:      "Total number of ticks skipped because the previous cycle was still running.",
	})
)
