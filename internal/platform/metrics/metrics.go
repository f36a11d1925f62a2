package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics shared by all routes.
// Module-specific metrics live next to their module.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veil_http_request_duration_seconds",
			Help:    "HTTP request duration by route and method",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "method"}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, start time.Time) {
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
