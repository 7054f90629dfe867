package party

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registry lookups.
type Metrics struct {
	Lookups      *prometheus.CounterVec
	CacheResults *prometheus.CounterVec
	LookupTime   prometheus.Histogram
}

// NewMetrics registers party registry metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_party_lookups_total",
			Help: "Party registry lookups by outcome (usable, missing, inactive, error)",
		}, []string{"outcome"}),
		CacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_party_cache_total",
			Help: "Party cache results (hit, miss, error)",
		}, []string{"result"}),
		LookupTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_party_lookup_duration_seconds",
			Help:    "Remote party registry lookup latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeLookup(res Resolution, err error, seconds float64) {
	if m == nil {
		return
	}
	m.LookupTime.Observe(seconds)
	switch {
	case err != nil:
		m.Lookups.WithLabelValues("error").Inc()
	case !res.Exists:
		m.Lookups.WithLabelValues("missing").Inc()
	case !res.Active:
		m.Lookups.WithLabelValues("inactive").Inc()
	default:
		m.Lookups.WithLabelValues("usable").Inc()
	}
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(result).Inc()
}
