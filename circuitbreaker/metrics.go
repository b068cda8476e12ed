/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package circuitbreaker

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics to analyze the breaker behavior.
type MetricsCollector interface {
	// SetState sets the current state of the breaker.
	SetState(State)

	// IncTrips increments the total number of CLOSED -> OPEN transitions.
	IncTrips()

	// IncShortCircuits increments the total number of calls rejected without touching the guarded dependency.
	IncShortCircuits()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the circuit breaker.
type PrometheusMetrics struct {
	CurrentState       prometheus.Gauge
	TripsTotal         prometheus.Counter
	ShortCircuitsTotal prometheus.Counter
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	currentState := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "circuit_breaker_state",
		Help:        "Current state of the circuit breaker (0 - closed, 1 - open, 2 - half-open).",
		ConstLabels: opts.ConstLabels,
	})
	tripsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "circuit_breaker_trips_total",
		Help:        "Number of times the circuit breaker tripped open.",
		ConstLabels: opts.ConstLabels,
	})
	shortCircuitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "circuit_breaker_short_circuits_total",
		Help:        "Number of calls rejected while the circuit breaker was open.",
		ConstLabels: opts.ConstLabels,
	})
	return &PrometheusMetrics{
		CurrentState:       currentState,
		TripsTotal:         tripsTotal,
		ShortCircuitsTotal: shortCircuitsTotal,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.CurrentState,
		pm.TripsTotal,
		pm.ShortCircuitsTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.CurrentState)
	prometheus.Unregister(pm.TripsTotal)
	prometheus.Unregister(pm.ShortCircuitsTotal)
}

// SetState sets the current state of the breaker.
func (pm *PrometheusMetrics) SetState(s State) {
	pm.CurrentState.Set(float64(s))
}

// IncTrips increments the total number of CLOSED -> OPEN transitions.
func (pm *PrometheusMetrics) IncTrips() {
	pm.TripsTotal.Inc()
}

// IncShortCircuits increments the total number of short-circuited calls.
func (pm *PrometheusMetrics) IncShortCircuits() {
	pm.ShortCircuitsTotal.Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetState(State)    {}
func (disabledMetrics) IncTrips()         {}
func (disabledMetrics) IncShortCircuits() {}

var disabledMetricsCollector = disabledMetrics{}
