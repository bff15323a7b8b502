/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsLabelOutcome = "outcome"

	metricsOutcomeAdmitted = "admitted"
	metricsOutcomeRejected = "rejected"
)

// MetricsCollector represents a collector of metrics for the admission control.
type MetricsCollector interface {
	// IncAdmitted increments the total number of admitted requests.
	IncAdmitted()

	// IncRejected increments the total number of rejected requests.
	IncRejected()

	// SetTrackedIdentities sets the number of identities whose quota state is held.
	SetTrackedIdentities(int)

	// AddSweptStates increments the total number of swept quota states.
	AddSweptStates(int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the admission control.
type PrometheusMetrics struct {
	DecisionsTotal    *prometheus.CounterVec
	TrackedIdentities prometheus.Gauge
	SweptStatesTotal  prometheus.Counter
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "admission_decisions_total",
			Help:        "Number of admission decisions.",
			ConstLabels: opts.ConstLabels,
		},
		[]string{metricsLabelOutcome},
	)

	trackedIdentities := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "admission_identities_tracked",
			Help:        "Number of identities whose quota state is held in memory.",
			ConstLabels: opts.ConstLabels,
		},
	)

	sweptStatesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "admission_states_swept_total",
			Help:        "Number of quota states removed because their window had expired.",
			ConstLabels: opts.ConstLabels,
		},
	)

	return &PrometheusMetrics{
		DecisionsTotal:    decisionsTotal,
		TrackedIdentities: trackedIdentities,
		SweptStatesTotal:  sweptStatesTotal,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.DecisionsTotal,
		pm.TrackedIdentities,
		pm.SweptStatesTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.DecisionsTotal)
	prometheus.Unregister(pm.TrackedIdentities)
	prometheus.Unregister(pm.SweptStatesTotal)
}

// IncAdmitted increments the total number of admitted requests.
func (pm *PrometheusMetrics) IncAdmitted() {
	pm.DecisionsTotal.WithLabelValues(metricsOutcomeAdmitted).Inc()
}

// IncRejected increments the total number of rejected requests.
func (pm *PrometheusMetrics) IncRejected() {
	pm.DecisionsTotal.WithLabelValues(metricsOutcomeRejected).Inc()
}

// SetTrackedIdentities sets the number of identities whose quota state is held.
func (pm *PrometheusMetrics) SetTrackedIdentities(n int) {
	pm.TrackedIdentities.Set(float64(n))
}

// AddSweptStates increments the total number of swept quota states.
func (pm *PrometheusMetrics) AddSweptStates(n int) {
	pm.SweptStatesTotal.Add(float64(n))
}

type disabledMetrics struct{}

func (disabledMetrics) IncAdmitted()             {}
func (disabledMetrics) IncRejected()             {}
func (disabledMetrics) SetTrackedIdentities(int) {}
func (disabledMetrics) AddSweptStates(int)       {}
