// Package metrics exposes solver telemetry as Prometheus collectors on a
// registry of their own.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notargets/gocombust/fvm"
)

const namespace = "gocombust"

// Collector records outer iterations, linear solves, field bounds and step times of a run
type Collector struct {
	registry *prometheus.Registry

	outerIterations *prometheus.CounterVec
	linearSolves    *prometheus.CounterVec
	unconverged     *prometheus.CounterVec
	speciesFraction *prometheus.GaugeVec
	temperature     *prometheus.GaugeVec
	simulationTime  prometheus.Gauge
	stepDuration    prometheus.Histogram
}

func NewCollector(run string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	labels := prometheus.Labels{"run": run}

	c.outerIterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pimple",
			Name:        "outer_iterations_total",
			Help:        "Total number of PIMPLE outer passes",
			ConstLabels: labels,
		},
		nil,
	)
	c.linearSolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "linear_solves_total",
			Help:        "Total number of linear solves per field",
			ConstLabels: labels,
		},
		[]string{"field"},
	)
	c.unconverged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "linear_solves_unconverged_total",
			Help:        "Linear solves stopped before reaching tolerance",
			ConstLabels: labels,
		},
		[]string{"field"},
	)
	c.speciesFraction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "species_fraction",
			Help:        "Mass fraction bounds after the last closure (stat = min, ave, max)",
			ConstLabels: labels,
		},
		[]string{"species", "stat"},
	)
	c.temperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "temperature",
			Help:        "Temperature bounds after the last energy solve, K",
			ConstLabels: labels,
		},
		[]string{"stat"},
	)
	c.simulationTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "time_seconds",
			Help:        "Simulated time reached",
			ConstLabels: labels,
		},
	)
	c.stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "step_duration_seconds",
			Help:        "Wall time of one time step",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
			ConstLabels: labels,
		},
	)

	c.registry.MustRegister(
		c.outerIterations,
		c.linearSolves,
		c.unconverged,
		c.speciesFraction,
		c.temperature,
		c.simulationTime,
		c.stepDuration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) OuterIteration() { c.outerIterations.WithLabelValues().Inc() }

func (c *Collector) LinearSolve(perf fvm.SolverPerformance) {
	c.linearSolves.WithLabelValues(perf.FieldName).Inc()
	if !perf.Converged {
		c.unconverged.WithLabelValues(perf.FieldName).Inc()
	}
}

func (c *Collector) SpecieBounds(name string, min, ave, max float64) {
	c.speciesFraction.WithLabelValues(name, "min").Set(min)
	c.speciesFraction.WithLabelValues(name, "ave").Set(ave)
	c.speciesFraction.WithLabelValues(name, "max").Set(max)
}

func (c *Collector) Temperature(min, max float64) {
	c.temperature.WithLabelValues("min").Set(min)
	c.temperature.WithLabelValues("max").Set(max)
}

func (c *Collector) Step(t float64, elapsed time.Duration) {
	c.simulationTime.Set(t)
	c.stepDuration.Observe(elapsed.Seconds())
}
