// Package metrics exports workflow run events as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/suhasdasari/S4D5/graph"
)

// Listener is a graph.Listener that counts runs and steps and records step
// durations. Metrics are labelled by graph name so several workflows can share
// one registry.
type Listener struct {
	steps    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	routes   *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewListener creates the collectors and registers them with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewListener(reg prometheus.Registerer) (*Listener, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	l := &Listener{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s4d5_steps_total",
				Help: "Number of step executions by result",
			},
			[]string{"graph", "step", "result"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s4d5_runs_total",
				Help: "Number of finished runs by status",
			},
			[]string{"graph", "status"},
		),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s4d5_routes_total",
				Help: "Number of conditional edge decisions by outcome",
			},
			[]string{"graph", "step", "outcome"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s4d5_route_errors_total",
				Help: "Number of conditional edges that could not pick a target",
			},
			[]string{"graph", "step"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "s4d5_step_duration_seconds",
				Help:    "Duration of successful step executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"graph", "step"},
		),
	}

	for _, c := range []prometheus.Collector{l.steps, l.runs, l.routes, l.failed, l.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// OnEvent implements graph.Listener
func (l *Listener) OnEvent(_ context.Context, e graph.Event) {
	switch e.Kind {
	case graph.EventStepEnd:
		l.steps.WithLabelValues(e.Graph, e.Step, "ok").Inc()
		l.duration.WithLabelValues(e.Graph, e.Step).Observe(e.Duration.Seconds())
	case graph.EventStepError:
		l.steps.WithLabelValues(e.Graph, e.Step, "error").Inc()
	case graph.EventRouteError:
		l.failed.WithLabelValues(e.Graph, e.Step).Inc()
	case graph.EventRoute:
		l.routes.WithLabelValues(e.Graph, e.Step, e.Outcome).Inc()
	case graph.EventRunEnd:
		l.runs.WithLabelValues(e.Graph, e.Status.String()).Inc()
	}
}
