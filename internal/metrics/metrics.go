package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects upstream and query metrics with Prometheus.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	droppedRecords   prometheus.Counter
	geocodeCache     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_upstream_requests_total",
				Help: "Total number of requests sent to upstream APIs by outcome",
			},
			[]string{"provider", "outcome"},
		),
		droppedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "radar_dropped_records_total",
				Help: "Total number of transaction records dropped during normalization",
			},
		),
		geocodeCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_geocode_cache_total",
				Help: "Geocode lookups by cache result",
			},
			[]string{"result"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radar_query_duration_seconds",
				Help:    "Duration of window queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"months", "status"},
		),
	}
}

// RecordUpstream records one upstream request outcome. A nil recorder is a no-op.
func (r *Recorder) RecordUpstream(provider, outcome string) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(provider, outcome).Inc()
}

// RecordDropped records records dropped by normalization
func (r *Recorder) RecordDropped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedRecords.Add(float64(n))
}

// RecordCache records a geocode cache hit or miss
func (r *Recorder) RecordCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.geocodeCache.WithLabelValues(result).Inc()
}

// RecordQuery records the latency of a window query
func (r *Recorder) RecordQuery(months, status string, seconds float64) {
	if r == nil {
		return
	}
	r.queryDuration.WithLabelValues(months, status).Observe(seconds)
}
