package evo

import (
	"cmp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"galapagos/internal/genetic"
)

var tracer = otel.Tracer("galapagos/internal/evo")

var (
	generationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "galapagos",
		Subsystem: "engine",
		Name:      "generations_total",
		Help:      "Generations completed across all engines, setup included.",
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "galapagos",
		Subsystem: "engine",
		Name:      "phase_duration_seconds",
		Help:      "Wall time of each generation phase.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"phase"})

	replacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "galapagos",
		Subsystem: "engine",
		Name:      "replaced_phenotypes_total",
		Help:      "Survivors replaced by fresh phenotypes, by reason.",
	}, []string{"reason"})

	alteredGenesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "galapagos",
		Subsystem: "engine",
		Name:      "altered_genes_total",
		Help:      "Genes changed by alterers.",
	})

	bestFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "galapagos",
		Subsystem: "engine",
		Name:      "best_fitness",
		Help:      "Best fitness of the most recent generation with numeric fitness.",
	})
)

func observe[G genetic.Gene[G], C cmp.Ordered](s *Statistics[G, C]) {
	generationsTotal.Inc()
	phaseDuration.WithLabelValues("selection").Observe(s.Durations.Selection.Seconds())
	phaseDuration.WithLabelValues("alter").Observe(s.Durations.Alter.Seconds())
	phaseDuration.WithLabelValues("combine").Observe(s.Durations.Combine.Seconds())
	phaseDuration.WithLabelValues("evaluation").Observe(s.Durations.Evaluation.Seconds())
	phaseDuration.WithLabelValues("statistics").Observe(s.Durations.Statistics.Seconds())
	phaseDuration.WithLabelValues("execution").Observe(s.Durations.Execution.Seconds())
	replacedTotal.WithLabelValues("killed").Add(float64(s.Killed))
	replacedTotal.WithLabelValues("invalid").Add(float64(s.Invalid))
	alteredGenesTotal.Add(float64(s.Altered))
	if v, ok := toFloat(s.BestFitness()); ok {
		bestFitness.Set(v)
	}
}
