package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transfer workflow.
type Metrics struct {
	// Engine calls by operation and outcome ("ok" or an error code)
	Operations *prometheus.CounterVec

	// State machine moves
	Transitions *prometheus.CounterVec

	OperationLatency *prometheus.HistogramVec

	// Transfer number collisions retried on create
	NumberCollisions prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_transfers_operations_total",
			Help: "Transfer engine calls by operation and outcome",
		}, []string{"operation", "outcome"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_transfers_transitions_total",
			Help: "Transfer status transitions",
		}, []string{"from", "to"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_transfers_operation_duration_seconds",
			Help:    "Duration of transfer engine calls including the transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		NumberCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_transfers_number_collisions_total",
			Help: "Generated transfer numbers that were already taken",
		}),
	}
}

func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncNumberCollision() {
	if m != nil {
		m.NumberCollisions.Inc()
	}
}
