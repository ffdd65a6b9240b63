package projection

import (
	"time"

	"github.com/desoc-network/govx/pkg/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes recorded by Metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)

// Metrics holds the projector's Prometheus collectors.
type Metrics struct {
	Events    *prometheus.CounterVec
	Mutations *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "govx",
			Subsystem: "projector",
			Name:      "events_total",
			Help:      "Events handled by the projector, by event name and outcome.",
		}, []string{"event", "outcome"}),
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "govx",
			Subsystem: "projector",
			Name:      "mutations_total",
			Help:      "Mutations applied to the derived store, by table and policy.",
		}, []string{"table", "policy"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "govx",
			Subsystem: "projector",
			Name:      "apply_duration_seconds",
			Help:      "Time to project one event, including the store write.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"event"}),
	}
}

func (m *Metrics) observe(event events.Name, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(string(event), outcome).Inc()
	m.Duration.WithLabelValues(string(event)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) applied(mutations []Mutation) {
	if m == nil {
		return
	}
	for _, mu := range mutations {
		m.Mutations.WithLabelValues(mu.Table.Name(), mu.Policy.String()).Inc()
	}
}
