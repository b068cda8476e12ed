/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retryqueue

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics to analyze how the retry queue is used.
type MetricsCollector interface {
	// SetItemsAmount sets the total number of queued items across all owners.
	SetItemsAmount(int)

	// IncEvictions increments the total number of items evicted due to per-owner capacity.
	IncEvictions()

	// IncDrops increments the total number of items dropped after exhausting redelivery attempts.
	IncDrops()

	// IncPersisted increments the total number of items successfully redelivered to the sink.
	IncPersisted()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the retry queue.
type PrometheusMetrics struct {
	ItemsAmount    prometheus.Gauge
	EvictionsTotal prometheus.Counter
	DropsTotal     prometheus.Counter
	PersistedTotal prometheus.Counter
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	itemsAmount := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "retry_queue_items_amount",
		Help:        "Total number of queued items across all owners.",
		ConstLabels: opts.ConstLabels,
	})
	evictionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "retry_queue_evictions_total",
		Help:        "Number of items evicted due to per-owner capacity.",
		ConstLabels: opts.ConstLabels,
	})
	dropsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "retry_queue_drops_total",
		Help:        "Number of items dropped after exhausting redelivery attempts.",
		ConstLabels: opts.ConstLabels,
	})
	persistedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "retry_queue_persisted_total",
		Help:        "Number of items successfully redelivered to the sink.",
		ConstLabels: opts.ConstLabels,
	})
	return &PrometheusMetrics{
		ItemsAmount:    itemsAmount,
		EvictionsTotal: evictionsTotal,
		DropsTotal:     dropsTotal,
		PersistedTotal: persistedTotal,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.ItemsAmount,
		pm.EvictionsTotal,
		pm.DropsTotal,
		pm.PersistedTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.ItemsAmount)
	prometheus.Unregister(pm.EvictionsTotal)
	prometheus.Unregister(pm.DropsTotal)
	prometheus.Unregister(pm.PersistedTotal)
}

// SetItemsAmount sets the total number of queued items across all owners.
func (pm *PrometheusMetrics) SetItemsAmount(amount int) {
	pm.ItemsAmount.Set(float64(amount))
}

// IncEvictions increments the total number of evicted items.
func (pm *PrometheusMetrics) IncEvictions() {
	pm.EvictionsTotal.Inc()
}

// IncDrops increments the total number of dropped items.
func (pm *PrometheusMetrics) IncDrops() {
	pm.DropsTotal.Inc()
}

// IncPersisted increments the total number of successfully redelivered items.
func (pm *PrometheusMetrics) IncPersisted() {
	pm.PersistedTotal.Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetItemsAmount(int) {}
func (disabledMetrics) IncEvictions()      {}
func (disabledMetrics) IncDrops()          {}
func (disabledMetrics) IncPersisted()      {}

var disabledMetricsCollector = disabledMetrics{}
