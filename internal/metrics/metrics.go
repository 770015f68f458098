// Package metrics exposes optimizer progress as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abm32/proteinforge/internal/model"
)

// Collector tracks a single run at a time. It satisfies the optimizer
// observer contracts and can be chained in front of another observer.
type Collector struct {
	registry *prometheus.Registry

	iterations        prometheus.Counter
	accepted          prometheus.Counter
	rejected          prometheus.Counter
	predictorFailures prometheus.Counter
	bestFitness       prometheus.Gauge
	meanFitness       prometheus.Gauge
	temperature       prometheus.Gauge
	stallCount        prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proteinforge_iterations_total",
			Help: "Optimizer iterations completed.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proteinforge_candidates_accepted_total",
			Help: "Challenger candidates accepted into the population.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proteinforge_candidates_rejected_total",
			Help: "Challenger candidates rejected by the acceptance rule.",
		}),
		predictorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proteinforge_predictor_failures_total",
			Help: "Structure predictions that returned an error.",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proteinforge_best_fitness",
			Help: "Best fitness seen so far in the current run.",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proteinforge_mean_fitness",
			Help: "Mean population fitness at the last iteration.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proteinforge_temperature",
			Help: "Annealing temperature at the last iteration.",
		}),
		stallCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proteinforge_stall_count",
			Help: "Consecutive iterations without best-fitness improvement.",
		}),
	}

	registry.MustRegister(
		c.iterations,
		c.accepted,
		c.rejected,
		c.predictorFailures,
		c.bestFitness,
		c.meanFitness,
		c.temperature,
		c.stallCount,
	)
	return c
}

func (c *Collector) OnIteration(_ model.StructureRecord, bestFitness float64) {
	c.iterations.Inc()
	c.bestFitness.Set(bestFitness)
}

func (c *Collector) OnDiagnostics(diag model.IterationDiagnostics) {
	c.accepted.Add(float64(diag.Accepted))
	c.rejected.Add(float64(diag.Rejected))
	c.predictorFailures.Add(float64(diag.PredictorFailures))
	c.meanFitness.Set(diag.MeanFitness)
	c.temperature.Set(diag.Temperature)
	c.stallCount.Set(float64(diag.StallCount))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gather exposes the raw registry for tests and embedding.
func (c *Collector) Gather() prometheus.Gatherer {
	return c.registry
}
