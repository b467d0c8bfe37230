package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OrderPlaced("store")
	m.OrderPlaced("store")
	m.OrderPlaced("subscription")
	m.CheckoutRejection("invalid_item")
	m.StatusWritten("confirmed")
	m.ObserveRequest("POST", "/api/orders", "201", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("store")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("subscription")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutRejected.WithLabelValues("invalid_item")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderStatusWrites.WithLabelValues("confirmed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced("store")
		m.CheckoutRejection("empty_cart")
		m.StatusWritten("cancelled")
		m.ObserveRequest("GET", "/api/health", "200", 0.001)
	})
}
