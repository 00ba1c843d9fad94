// Package monitoring exposes Prometheus metrics for the browser backend.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Session metrics
	CanvasesGauge prometheus.Gauge
}

// NewMetrics creates a metrics collector registered on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browser_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browser_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browser_ws_connections",
				Help: "Number of live websocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browser_ws_messages_total",
				Help: "Total websocket messages handled by command kind",
			},
			[]string{"kind"},
		),
		CanvasesGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browser_canvases_open",
				Help: "Number of open canvases",
			},
		),
	}
}

// MessageHandled implements session.Observer.
func (m *Metrics) MessageHandled(kind string) {
	m.WSMessages.WithLabelValues(kind).Inc()
}

// CanvasesOpen implements session.Observer.
func (m *Metrics) CanvasesOpen(n int) {
	m.CanvasesGauge.Set(float64(n))
}
