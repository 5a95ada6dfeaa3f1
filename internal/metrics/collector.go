// Package metrics exposes pipeline transitions as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/triggergrid/internal/events"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "triggergrid"

// Collector is an events.Sink that keeps Prometheus metrics in its own
// registry, so several collectors can coexist in one process (and in tests).
type Collector struct {
	registry *prometheus.Registry

	StageTransitions *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	StagesRunning    prometheus.Gauge
	ScenarioRuns     *prometheus.CounterVec
	ScenarioDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Total number of trigger stage transitions by target status",
		}, []string{"stage", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time trigger stages spent running, by final status",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"stage", "status"}),
		StagesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stages_running",
			Help:      "Number of trigger stages currently running",
		}),
		ScenarioRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_runs_total",
			Help:      "Total number of finished scenario runs by final status",
		}, []string{"status"}),
		ScenarioDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_run_duration_seconds",
			Help:      "Duration of scenario runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"status"}),
	}

	reg.MustRegister(c.StageTransitions, c.StageDuration, c.StagesRunning, c.ScenarioRuns, c.ScenarioDuration)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler that serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Publish implements events.Sink.
func (c *Collector) Publish(_ context.Context, e events.Event) {
	switch e.Kind {
	case events.KindStage:
		c.StageTransitions.WithLabelValues(e.Stage, e.To).Inc()
		if e.To == "running" {
			c.StagesRunning.Inc()
		}
		if e.From == "running" {
			c.StagesRunning.Dec()
			c.StageDuration.WithLabelValues(e.Stage, e.To).Observe(e.Duration.Seconds())
		}
	case events.KindRun:
		switch e.To {
		case "succeeded", "failed", "cancelled":
			c.ScenarioRuns.WithLabelValues(e.To).Inc()
			if e.Duration > 0 {
				c.ScenarioDuration.WithLabelValues(e.To).Observe(e.Duration.Seconds())
			}
		}
	}
}
