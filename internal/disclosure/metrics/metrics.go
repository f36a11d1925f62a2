package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the disclosure module.
type Metrics struct {
	DisclosuresTotal     *prometheus.CounterVec
	FieldsDisclosedTotal prometheus.Counter
	FieldsWithheldTotal  prometheus.Counter
	FilterDuration       prometheus.Histogram
}

// New creates a new Metrics instance with all disclosure metrics registered.
func New() *Metrics {
	return &Metrics{
		DisclosuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_disclosures_total",
			Help: "Disclosure requests by outcome (processed, rejected, not_found)",
		}, []string{"outcome"}),
		FieldsDisclosedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veil_fields_disclosed_total",
			Help: "Total individual field values released to requesting parties",
		}),
		FieldsWithheldTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veil_fields_withheld_total",
			Help: "Total individual field values explicitly withheld",
		}),
		FilterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veil_filter_duration_seconds",
			Help:    "Duration of the full disclosure path including snapshot load",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// ObserveDisclosure records one completed disclosure call.
func (m *Metrics) ObserveDisclosure(outcome string, disclosed, withheld int, start time.Time) {
	m.DisclosuresTotal.WithLabelValues(outcome).Inc()
	m.FieldsDisclosedTotal.Add(float64(disclosed))
	m.FieldsWithheldTotal.Add(float64(withheld))
	m.FilterDuration.Observe(time.Since(start).Seconds())
}

// ObserveRejection records a disclosure call that failed before filtering.
func (m *Metrics) ObserveRejection(outcome string, start time.Time) {
	m.DisclosuresTotal.WithLabelValues(outcome).Inc()
	m.FilterDuration.Observe(time.Since(start).Seconds())
}
