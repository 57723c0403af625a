package problem

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"

	"galapagos/internal/config"
	"galapagos/internal/evo"
	"galapagos/internal/genetic"
	"galapagos/internal/model"
)

// landscape is what a problem builds from its configuration: a genotype
// template, the fitness function and, if known, the optimal fitness.
type landscape[G genetic.Gene[G], C genetic.Number] struct {
	template genetic.Genotype[G]
	fitness  genetic.FitnessFunc[G, C]
	optimum  *C
}

type definition[G genetic.Gene[G], C genetic.Number] struct {
	name        string
	description string
	optimize    genetic.Optimize
	alterers    map[string]altererBuilder[G, C]
	defaults    []config.AltererConfig
	build       func(rng *rand.Rand, p config.ProblemConfig) (landscape[G, C], error)
}

func (d *definition[G, C]) Name() string { return d.name }

func (d *definition[G, C]) Description() string { return d.description }

func (d *definition[G, C]) DefaultAlterers() []config.AltererConfig {
	if len(d.defaults) == 0 {
		return slices.Clone(standardAlterers)
	}
	return slices.Clone(d.defaults)
}

func (d *definition[G, C]) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("problem", d.name))

	land, err := d.build(rand.New(rand.NewSource(cfg.Seed)), cfg.Problem)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", d.name, err)
	}
	survivors, err := buildSelector[G, C](cfg.Selection.Survivors, cfg.Engine.PopulationSize)
	if err != nil {
		return nil, fmt.Errorf("survivor selector: %w", err)
	}
	offspring, err := buildSelector[G, C](cfg.Selection.Offspring, cfg.Engine.PopulationSize)
	if err != nil {
		return nil, fmt.Errorf("offspring selector: %w", err)
	}
	alterers := cfg.Alterers
	if len(alterers) == 0 {
		alterers = d.DefaultAlterers()
	}
	alterer, err := buildAlterer(d.name, d.alterers, alterers)
	if err != nil {
		return nil, err
	}

	template := land.template
	engine, err := evo.NewEngine(evo.Config[G, C]{
		Factory:             func(rng *rand.Rand) genetic.Genotype[G] { return template.NewInstance(rng) },
		Fitness:             land.fitness,
		Optimize:            d.optimize,
		PopulationSize:      cfg.Engine.PopulationSize,
		OffspringFraction:   cfg.Engine.OffspringFraction,
		MaximalPhenotypeAge: cfg.Engine.MaximalPhenotypeAge,
		SurvivorSelector:    survivors,
		OffspringSelector:   offspring,
		Alterer:             alterer,
		Workers:             cfg.Engine.Workers,
		Seed:                cfg.Seed,
		Logger:              logger,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := engine.Setup(ctx); err != nil {
		return nil, err
	}

	limits := []evo.Predicate[G, C]{evo.ByGeneration[G, C](cfg.Engine.Generations)}
	if cfg.Engine.SteadyGenerations > 0 {
		limits = append(limits, evo.BySteadyFitness[G, C](cfg.Engine.SteadyGenerations))
	}
	if land.optimum != nil {
		limits = append(limits, evo.ByFitnessThreshold[G, C](*land.optimum))
	}
	limit := evo.All(limits...)

	var records []model.GenerationRecord
	record := func(s *evo.Statistics[G, C]) bool {
		records = append(records, toRecord(s))
		return limit(s)
	}
	if err := engine.EvolveWhile(ctx, record); err != nil {
		return nil, err
	}

	var result *Result
	engine.View(func(v evo.View[G, C]) {
		best := v.BestStatistics
		result = &Result{
			Problem:        d.name,
			Optimize:       d.optimize,
			Generations:    records,
			BestFitness:    finite(float64(best.BestFitness())),
			BestGeneration: best.Generation,
			BestGenotype:   best.Best.Genotype().String(),
			Killed:         v.Killed,
			Invalid:        v.Invalid,
		}
	})
	logger.Info("run finished",
		slog.Int("generations", len(records)),
		slog.Float64("best", result.BestFitness),
		slog.Int("best_generation", result.BestGeneration),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func toRecord[G genetic.Gene[G], C genetic.Number](s *evo.Statistics[G, C]) model.GenerationRecord {
	return model.GenerationRecord{
		Generation:      s.Generation,
		BestFitness:     finite(float64(s.BestFitness())),
		WorstFitness:    finite(float64(s.WorstFitness())),
		FitnessMean:     finite(s.FitnessMean),
		FitnessVariance: finite(s.FitnessVariance),
		AgeMean:         finite(s.AgeMean),
		AgeVariance:     finite(s.AgeVariance),
		Samples:         s.Samples,
		Killed:          s.Killed,
		Invalid:         s.Invalid,
		Altered:         s.Altered,
		Durations: model.PhaseDurationMS{
			Selection:  milliseconds(s.Durations.Selection),
			Alter:      milliseconds(s.Durations.Alter),
			Combine:    milliseconds(s.Durations.Combine),
			Evaluation: milliseconds(s.Durations.Evaluation),
			Statistics: milliseconds(s.Durations.Statistics),
			Execution:  milliseconds(s.Durations.Execution),
		},
	}
}

// finite maps NaN and infinities to zero; JSON cannot carry them.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func sizeOr(p config.ProblemConfig, fallback int) int {
	if p.Size > 0 {
		return p.Size
	}
	return fallback
}
