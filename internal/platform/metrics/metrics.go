package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the state-synchronization core. One
// instance is shared by every domain store; a nil *Metrics disables recording
// so tests can construct stores without a registry.
type Metrics struct {
	// Operation outcomes by domain, operation, and outcome (fulfilled/rejected).
	Operations *prometheus.CounterVec

	// End-to-end operation latency, start to applied completion.
	OperationDuration *prometheus.HistogramVec

	// Completions discarded because a newer same-key operation superseded them.
	StaleCompletions *prometheus.CounterVec

	// Global signal resets by kind (success/error).
	SignalResets *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(nil)
}

// NewWith registers on the given registerer; nil means the default registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_operations_total",
			Help: "Total operation completions by domain, operation, and outcome",
		}, []string{"domain", "operation", "outcome"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkwell_operation_duration_seconds",
			Help:    "Duration from operation start to applied completion",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"domain", "operation"}),

		StaleCompletions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_stale_completions_total",
			Help: "Completions discarded because a newer operation superseded them",
		}, []string{"domain", "operation"}),

		SignalResets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_signal_resets_total",
			Help: "Global signal resets by kind",
		}, []string{"kind"}),
	}
}

// ObserveOperation records one completed operation.
func (m *Metrics) ObserveOperation(domain, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(domain, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(domain, operation).Observe(d.Seconds())
}

// IncrementStale records one discarded late completion.
func (m *Metrics) IncrementStale(domain, operation string) {
	if m == nil {
		return
	}
	m.StaleCompletions.WithLabelValues(domain, operation).Inc()
}

// IncrementReset records one global signal reset.
func (m *Metrics) IncrementReset(kind string) {
	if m == nil {
		return
	}
	m.SignalResets.WithLabelValues(kind).Inc()
}
