package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutsTotal counts checkout attempts by winning promotion and outcome.
	CheckoutsTotal *prometheus.CounterVec
	// OrderValue records order final totals in dollars.
	OrderValue prometheus.Histogram
	// DiscountTotal accumulates dollars discounted per promotion.
	DiscountTotal *prometheus.CounterVec
	// DrinksSoldTotal counts drinks sold per category.
	DrinksSoldTotal *prometheus.CounterVec
	// MenuRowsTotal counts catalog rows by load outcome.
	MenuRowsTotal *prometheus.CounterVec
	// ReceiptSavesTotal counts receipt persistence outcomes per store.
	ReceiptSavesTotal *prometheus.CounterVec
	// OpenCarts tracks carts currently accumulating lines.
	OpenCarts prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers the ordering collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutsTotal = registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Count of checkout attempts by promotion and result.",
		}, []string{"promotion", "result"}))
		OrderValue = registerCollector(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_dollars",
			Help:      "Distribution of order final totals.",
			Buckets:   []float64{2, 5, 10, 15, 20, 30, 50, 100},
		}))
		DiscountTotal = registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_dollars_total",
			Help:      "Dollars discounted by promotion.",
		}, []string{"promotion"}))
		DrinksSoldTotal = registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drinks_sold_total",
			Help:      "Drinks sold by category.",
		}, []string{"category"}))
		MenuRowsTotal = registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_rows_total",
			Help:      "Catalog rows processed by outcome.",
		}, []string{"result"}))
		ReceiptSavesTotal = registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_saves_total",
			Help:      "Receipt persistence outcomes by store.",
		}, []string{"store", "result"}))
		OpenCarts = registerCollector(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_carts",
			Help:      "Number of carts currently open.",
		}))
	})
}

// registerCollector registers c, returning the already registered collector of the same
// description when there is one.
func registerCollector[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
			return c
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return c
}
