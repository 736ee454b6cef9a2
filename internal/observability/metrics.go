// internal/observability/metrics.go
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	sessionDuration prometheus.Histogram
	eventsSent      *prometheus.CounterVec
	publishErrors   *prometheus.CounterVec
}

// NewMetrics registers the stream metrics on a private registry so that
// several servers can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nilm_sessions_active",
			Help: "Streaming sessions currently connected.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nilm_sessions_total",
			Help: "Streaming sessions accepted since start.",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nilm_session_duration_seconds",
			Help:    "How long streaming sessions stayed connected.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
		eventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nilm_events_sent_total",
			Help: "Synthetic events delivered to clients, by appliance.",
		}, []string{"appliance"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nilm_publish_errors_total",
			Help: "Failed event mirrors, by sink.",
		}, []string{"sink"}),
	}

	m.registry.MustRegister(
		m.sessionsActive,
		m.sessionsTotal,
		m.sessionDuration,
		m.eventsSent,
		m.publishErrors,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) SessionStarted() {
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded(d time.Duration) {
	m.sessionsActive.Dec()
	m.sessionDuration.Observe(d.Seconds())
}

func (m *Metrics) EventSent(appliance string) {
	m.eventsSent.WithLabelValues(appliance).Inc()
}

func (m *Metrics) PublishFailed(sink string) {
	m.publishErrors.WithLabelValues(sink).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
