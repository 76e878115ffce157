package shop

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK                = "ok"
	resultNotFound          = "not_found"
	resultInsufficientStock = "insufficient_stock"
	resultInvalid           = "invalid"
)

// Metrics counts catalog activity. A nil *Metrics records nothing.
type Metrics struct {
	ListingsCreated prometheus.Counter
	Purchases       *prometheus.CounterVec
	UnitsSold       prometheus.Counter
	Revenue         prometheus.Counter
	Listings        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ListingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_listings_created_total",
			Help: "Listings added to the catalog",
		}),
		Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_purchases_total",
			Help: "Purchase attempts by result",
		}, []string{"result"}),
		UnitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_units_sold_total",
			Help: "Units sold across all listings",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_revenue_minor_units_total",
			Help: "Revenue in the smallest currency unit",
		}),
		Listings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shop_listings",
			Help: "Listings currently in the catalog",
		}),
	}

	reg.MustRegister(m.ListingsCreated, m.Purchases, m.UnitsSold, m.Revenue, m.Listings)
	return m
}

func (m *Metrics) listingCreated() {
	if m == nil {
		return
	}
	m.ListingsCreated.Inc()
	m.Listings.Inc()
}

func (m *Metrics) purchase(result string, units, revenue uint64) {
	if m == nil {
		return
	}
	m.Purchases.WithLabelValues(result).Inc()
	if result == resultOK {
		m.UnitsSold.Add(float64(units))
		m.Revenue.Add(float64(revenue))
	}
}

// Observe seeds the gauge from a restored catalog.
func (m *Metrics) Observe(listings int) {
	if m == nil {
		return
	}
	m.Listings.Set(float64(listings))
}
