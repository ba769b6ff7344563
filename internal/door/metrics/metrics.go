package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the door module.
type Metrics struct {
	// Command outcomes by canonical action and result code.
	CommandOutcome *prometheus.CounterVec

	// Full command execution latency, validation through audit.
	CommandLatency prometheus.Histogram

	// Accessible-door resolution latency.
	ResolveLatency prometheus.Histogram
}

// New creates a Metrics instance with all door module metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartdoor_door_command_outcomes_total",
			Help: "Total door command outcomes by action and result code",
		}, []string{"action", "result"}),

		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartdoor_door_command_duration_seconds",
			Help:    "Duration of door command execution including audit",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartdoor_door_resolve_duration_seconds",
			Help:    "Duration of accessible-door resolution",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementOutcome records a command outcome.
func (m *Metrics) IncrementOutcome(action, result string) {
	if m != nil {
		m.CommandOutcome.WithLabelValues(action, result).Inc()
	}
}

// ObserveCommandLatency records a full command execution duration.
func (m *Metrics) ObserveCommandLatency(d time.Duration) {
	if m != nil {
		m.CommandLatency.Observe(d.Seconds())
	}
}

// ObserveResolveLatency records an accessible-door resolution duration.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}
