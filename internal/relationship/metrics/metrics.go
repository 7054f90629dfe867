package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the relationship module.
type Metrics struct {
	// Edges created by kind
	EdgesCreated *prometheus.CounterVec

	// Mutations by operation and outcome (ok, not_found, conflict, validation, error)
	Mutations *prometheus.CounterVec

	// Query latency by query name (list, by_party, high_risk, overdue, stale, ...)
	QueryLatency *prometheus.HistogramVec

	// Statistics aggregation latency
	StatisticsLatency prometheus.Histogram
}

// New creates a new Metrics instance with all relationship metrics registered.
func New() *Metrics {
	return &Metrics{
		EdgesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_relationship_edges_created_total",
			Help: "Total relationship edges created by kind",
		}, []string{"kind"}),

		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_relationship_mutations_total",
			Help: "Total relationship mutations by operation and outcome",
		}, []string{"operation", "outcome"}),

		QueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkage_relationship_query_duration_seconds",
			Help:    "Duration of relationship list queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"query"}),

		StatisticsLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_relationship_statistics_duration_seconds",
			Help:    "Duration of statistics aggregation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementCreated records a created edge.
func (m *Metrics) IncrementCreated(kind string) {
	if m != nil {
		m.EdgesCreated.WithLabelValues(kind).Inc()
	}
}

// IncrementMutation records the outcome of a mutation.
func (m *Metrics) IncrementMutation(operation, outcome string) {
	if m != nil {
		m.Mutations.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveQueryLatency records the duration of a list query.
func (m *Metrics) ObserveQueryLatency(query string, d time.Duration) {
	if m != nil {
		m.QueryLatency.WithLabelValues(query).Observe(d.Seconds())
	}
}

// ObserveStatisticsLatency records the duration of a statistics call.
func (m *Metrics) ObserveStatisticsLatency(d time.Duration) {
	if m != nil {
		m.StatisticsLatency.Observe(d.Seconds())
	}
}
