package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_research_sessions_started_total",
			Help: "Total number of research sessions started",
		},
		[]string{"mode"},
	)

	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_research_sessions_completed_total",
			Help: "Total number of research sessions completed",
		},
		[]string{"mode", "status"},
	)

	SessionFindings = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_session_findings",
			Help:    "Unique findings accumulated per session",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250},
		},
		[]string{"mode"},
	)

	SessionRounds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_session_rounds",
			Help:    "Rounds executed per session",
			Buckets: []float64{1, 2, 4, 6, 10, 15, 25},
		},
		[]string{"mode"},
	)

	SessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_session_duration_seconds",
			Help:    "Wall-clock duration per session",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)

	// Round metrics
	RoundsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_rounds_executed_total",
			Help: "Total number of search rounds executed",
		},
		[]string{"mode"},
	)

	QueriesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_queries_issued_total",
			Help: "Total number of search queries issued, by outcome",
		},
		[]string{"status"}, // ok | failed
	)

	FindingsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_findings_merged_total",
			Help: "Results merged into sessions, by dedup outcome",
		},
		[]string{"outcome"}, // new | duplicate
	)

	// Provider metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_provider_requests_total",
			Help: "Search provider requests, by outcome",
		},
		[]string{"status"}, // ok | error
	)

	ProviderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fathom_provider_latency_seconds",
			Help:    "Search provider request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_search_cache_hits_total",
			Help: "Provider response cache hits",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_search_cache_misses_total",
			Help: "Provider response cache misses",
		},
	)

	// Circuit breaker state (0=closed, 1=half-open, 2=open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fathom_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name", "service"},
	)
)
