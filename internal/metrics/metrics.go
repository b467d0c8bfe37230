package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the storefront's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestDuration   *prometheus.HistogramVec
	OrdersPlaced      *prometheus.CounterVec
	CheckoutRejected  *prometheus.CounterVec
	OrderStatusWrites *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_placed_total",
			Help:      "Orders committed at checkout, by order type.",
		}, []string{"type"}),
		CheckoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_rejected_total",
			Help:      "Checkout attempts rejected, by error code.",
		}, []string{"code"}),
		OrderStatusWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_status_updates_total",
			Help:      "Admin status writes, by target status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.RequestDuration, m.OrdersPlaced, m.CheckoutRejected, m.OrderStatusWrites)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) OrderPlaced(orderType string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(orderType).Inc()
}

func (m *Metrics) CheckoutRejection(code string) {
	if m == nil {
		return
	}
	m.CheckoutRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) StatusWritten(status string) {
	if m == nil {
		return
	}
	m.OrderStatusWrites.WithLabelValues(status).Inc()
}
