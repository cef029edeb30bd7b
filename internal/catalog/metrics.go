package catalog

import "github.com/prometheus/client_golang/prometheus"

const labelResult = "result"

// Metrics holds the catalog collectors. A nil *Metrics records nothing.
type Metrics struct {
	Loads        *prometheus.CounterVec
	Products     prometheus.Gauge
	PointFetches *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_loads_total",
				Help: "Catalog loads by result",
			},
			[]string{labelResult},
		),
		Products: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_products",
				Help: "Products in the published catalog",
			},
		),
		PointFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_point_fetches_total",
				Help: "Detail point fetches by result",
			},
			[]string{labelResult},
		),
	}

	reg.MustRegister(m.Loads, m.Products, m.PointFetches)
	return m
}

func (m *Metrics) observeLoad(result string, published bool, n int) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(result).Inc()
	if published {
		m.Products.Set(float64(n))
	}
}

func (m *Metrics) observePointFetch(o Outcome) {
	if m == nil {
		return
	}
	m.PointFetches.WithLabelValues(o.String()).Inc()
}
