// Package metrics exposes Prometheus instrumentation for the contest core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors touched by the service layer.
type Metrics struct {
	Transitions          *prometheus.CounterVec
	TransitionsRejected  *prometheus.CounterVec
	EvaluationsSubmitted *prometheus.CounterVec
	DuplicatesRejected   prometheus.Counter
	CapacityRejections   prometheus.Counter
	GateDenials          *prometheus.CounterVec
	WSClients            prometheus.Gauge
}

// New creates a Metrics instance registered against its own registry,
// so tests can create as many instances as they need.
func New() (*Metrics, http.Handler) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catador_sample_transitions_total",
				Help: "Sample lifecycle transitions applied, by target status.",
			},
			[]string{"to"},
		),
		TransitionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catador_sample_transitions_rejected_total",
				Help: "Sample lifecycle transitions rejected, by reason.",
			},
			[]string{"reason"},
		),
		EvaluationsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catador_evaluations_submitted_total",
				Help: "Evaluations accepted, by stage.",
			},
			[]string{"stage"},
		),
		DuplicatesRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catador_duplicate_evaluations_rejected_total",
				Help: "Evaluation submissions rejected because the actor already scored the sample.",
			},
		),
		CapacityRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catador_assignment_capacity_rejections_total",
				Help: "Judge assignments rejected because a judge was at capacity.",
			},
		),
		GateDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catador_final_stage_gate_denials_total",
				Help: "Final-stage access denials, by failed condition.",
			},
			[]string{"condition"},
		),
		WSClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catador_websocket_clients",
				Help: "Currently connected WebSocket clients.",
			},
		),
	}

	return m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
