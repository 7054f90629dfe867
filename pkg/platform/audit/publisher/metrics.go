package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for relationship history delivery.
type Metrics struct {
	Emitted      *prometheus.CounterVec
	Delivered    prometheus.Counter
	Failed       prometheus.Counter
	Dropped      prometheus.Counter
	Retries      prometheus.Counter
	BufferDepth  prometheus.Gauge
	BreakerState prometheus.Gauge
}

// NewMetrics creates history publisher metrics registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_history_events_emitted_total",
			Help: "History events accepted for delivery, by change type",
		}, []string{"change_type"}),
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkage_history_events_delivered_total",
			Help: "History events persisted by the sink",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkage_history_events_failed_total",
			Help: "History events abandoned after exhausting retries",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkage_history_events_dropped_total",
			Help: "History events evicted from a full buffer",
		}),
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkage_history_delivery_retries_total",
			Help: "Sink append retries",
		}),
		BufferDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkage_history_buffer_depth",
			Help: "History events waiting for delivery",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkage_history_sink_circuit_state",
			Help: "History sink circuit state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncEmitted(changeType string) {
	if m == nil {
		return
	}
	m.Emitted.WithLabelValues(changeType).Inc()
}

func (m *Metrics) IncDelivered() {
	if m == nil {
		return
	}
	m.Delivered.Inc()
}

func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.Failed.Inc()
}

func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Dropped.Add(float64(n))
}

func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

func (m *Metrics) SetBufferDepth(n int) {
	if m == nil {
		return
	}
	m.BufferDepth.Set(float64(n))
}

func (m *Metrics) SetBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}
