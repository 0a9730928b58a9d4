// Package metrics exposes Prometheus instrumentation for the checkout flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	OrdersPlaced      prometheus.Counter
	OrderRejections   *prometheus.CounterVec
	PlacementDuration prometheus.Histogram
	RateGateDecisions *prometheus.CounterVec
	PaymentChecks     *prometheus.CounterVec
	StatusUpdates     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed.",
		}),
		OrderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_rejections_total",
			Help:      "Order submissions rejected, by error kind.",
		}, []string{"kind"}),
		PlacementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_placement_duration_seconds",
			Help:      "Time spent placing an order, successful or not.",
			Buckets:   prometheus.DefBuckets,
		}),
		RateGateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_gate_decisions_total",
			Help:      "Submission rate gate outcomes.",
		}, []string{"outcome"}),
		PaymentChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_checks_total",
			Help:      "Payment proof checks, by method and result.",
		}, []string{"method", "result"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_updates_total",
			Help:      "Order lifecycle transitions applied.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrdersPlaced,
		m.OrderRejections,
		m.PlacementDuration,
		m.RateGateDecisions,
		m.PaymentChecks,
		m.StatusUpdates,
	)
	return m
}

// ObservePlacement records the outcome of one order submission. kind is empty
// for a committed order.
func (m *Metrics) ObservePlacement(start time.Time, kind string) {
	m.PlacementDuration.Observe(time.Since(start).Seconds())
	if kind == "" {
		m.OrdersPlaced.Inc()
		return
	}
	m.OrderRejections.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
