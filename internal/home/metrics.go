package home

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeDisplayed  = "displayed"
	outcomeFailed     = "failed"
	outcomeSuperseded = "superseded"
)

// Metrics holds the collectors of the home view
type Metrics struct {
	MetaFetches  *prometheus.CounterVec
	MetaDuration prometheus.Histogram
}

// NewMetrics creates the home view collectors and registers them at the given registerer.
// A nil registerer creates unregistered collectors.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MetaFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metaview_meta_fetches_total",
			Help: "Total number of metadata fetches by outcome",
		}, []string{"outcome"}),
		MetaDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "metaview_meta_fetch_duration_seconds",
			Help:    "Duration of metadata fetches",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(outcome string, seconds float64) {
	m.MetaFetches.WithLabelValues(outcome).Inc()
	m.MetaDuration.Observe(seconds)
}
