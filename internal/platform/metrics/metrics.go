package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SectionsScored     prometheus.Counter
	IngestUnits        *prometheus.CounterVec
	UpsertRetries      prometheus.Counter
	QueryDuration      prometheus.Histogram
	QueryCacheHits     prometheus.Counter
	QueryCacheMisses   prometheus.Counter
	GroupQueryFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SectionsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "regpulse_sections_scored_total",
			Help: "Total number of regulation sections scored during ingestion",
		}),
		IngestUnits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_ingest_units_total",
			Help: "Ingest units processed, labeled by terminal state",
		}, []string{"state"}),
		UpsertRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "regpulse_store_upsert_retries_total",
			Help: "Transient store write failures that were retried",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "regpulse_query_duration_seconds",
			Help:    "Duration of facade query resolution",
			Buckets: prometheus.DefBuckets,
		}),
		QueryCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "regpulse_query_cache_hits_total",
			Help: "Facade results served from the Redis cache",
		}),
		QueryCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "regpulse_query_cache_misses_total",
			Help: "Facade results that required store aggregation",
		}),
		GroupQueryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "regpulse_group_query_failures_total",
			Help: "Group queries that failed and were reported as all-null columns",
		}),
	}
}

// IncrementIngestUnit records one ingest unit reaching a terminal state.
func (m *Metrics) IncrementIngestUnit(state string) {
	m.IngestUnits.WithLabelValues(state).Inc()
}
