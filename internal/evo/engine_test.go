package evo

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galapagos/internal/gene"
	"galapagos/internal/genetic"
	"galapagos/internal/selection"
)

func bitFactory(length int) func(rng *rand.Rand) genetic.Genotype[gene.Bit] {
	return func(rng *rand.Rand) genetic.Genotype[gene.Bit] {
		ch, err := gene.NewBitChromosome(rng, length, 0.5)
		if err != nil {
			panic(err)
		}
		gt, err := genetic.NewGenotype[gene.Bit](ch)
		if err != nil {
			panic(err)
		}
		return gt
	}
}

func oneMaxConfig(seed int64) Config[gene.Bit, int] {
	return Config[gene.Bit, int]{
		Factory:        bitFactory(32),
		Fitness:        gene.CountOnes,
		PopulationSize: 40,
		Workers:        4,
		Seed:           seed,
	}
}

func newOneMax(t *testing.T, seed int64) *Engine[gene.Bit, int] {
	t.Helper()
	e, err := NewEngine(oneMaxConfig(seed))
	require.NoError(t, err)
	return e
}

func TestEngineSequencing(t *testing.T) {
	ctx := context.Background()
	e := newOneMax(t, 1)
	assert.Equal(t, Uninitialized, e.State())

	require.ErrorIs(t, e.Evolve(ctx), ErrNotInitialized)
	require.ErrorIs(t, e.EvolveWhile(ctx, ByGeneration[gene.Bit, int](3)), ErrNotInitialized)

	require.NoError(t, e.Setup(ctx))
	assert.Equal(t, Ready, e.State())
	assert.Equal(t, 1, e.Generation())
	require.ErrorIs(t, e.Setup(ctx), ErrAlreadyInitialized)
	require.ErrorIs(t, e.SetupGenotypes(ctx, []genetic.Genotype[gene.Bit]{bitFactory(4)(rand.New(rand.NewSource(1)))}), ErrAlreadyInitialized)

	for k := 1; k <= 7; k++ {
		require.NoError(t, e.Evolve(ctx))
		assert.Equal(t, k+1, e.Generation())
	}
	assert.Equal(t, Evolving, e.State())
	assert.Equal(t, 40, e.Population().Len())
}

func TestEngineDefaults(t *testing.T) {
	e, err := NewEngine(Config[gene.Bit, int]{Factory: bitFactory(8), Fitness: gene.CountOnes})
	require.NoError(t, err)
	assert.Equal(t, DefaultPopulationSize, e.cfg.PopulationSize)
	assert.Equal(t, DefaultMaximalPhenotypeAge, e.cfg.MaximalPhenotypeAge)
	assert.Equal(t, 30, e.OffspringCount())
	assert.Equal(t, 20, e.SurvivorCount())
	assert.Equal(t, "tournament", e.cfg.SurvivorSelector.Name())
}

func TestEngineConfigValidation(t *testing.T) {
	cases := map[string]func(*Config[gene.Bit, int]){
		"missing factory":   func(c *Config[gene.Bit, int]) { c.Factory = nil },
		"missing fitness":   func(c *Config[gene.Bit, int]) { c.Fitness = nil },
		"negative size":     func(c *Config[gene.Bit, int]) { c.PopulationSize = -1 },
		"fraction too big":  func(c *Config[gene.Bit, int]) { c.OffspringFraction = 1.5 },
		"negative fraction": func(c *Config[gene.Bit, int]) { c.OffspringFraction = -0.1 },
		"negative age":      func(c *Config[gene.Bit, int]) { c.MaximalPhenotypeAge = -3 },
		"negative workers":  func(c *Config[gene.Bit, int]) { c.Workers = -1 },
		"bad optimize":      func(c *Config[gene.Bit, int]) { c.Optimize = genetic.Optimize(7) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := oneMaxConfig(1)
			mutate(&cfg)
			_, err := NewEngine(cfg)
			require.Error(t, err)
		})
	}
}

func TestEngineImprovesOneMax(t *testing.T) {
	ctx := context.Background()
	e := newOneMax(t, 3)
	require.NoError(t, e.Setup(ctx))
	initial := e.BestStatistics().BestFitness()

	require.NoError(t, e.EvolveN(ctx, 60))
	best := e.BestStatistics()
	assert.GreaterOrEqual(t, best.BestFitness(), initial)
	assert.Greater(t, best.BestFitness(), initial)
	assert.Equal(t, best.BestFitness(), e.BestPhenotype().Fitness())
	assert.Equal(t, 61, e.Generation())
}

func TestEngineBestStatisticsKeepsFirstOnTies(t *testing.T) {
	ctx := context.Background()
	cfg := oneMaxConfig(5)
	cfg.Fitness = func(genetic.Genotype[gene.Bit]) int { return 7 }
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Setup(ctx))
	require.NoError(t, e.EvolveN(ctx, 5))

	assert.Equal(t, 1, e.BestStatistics().Generation)
	assert.Equal(t, 6, e.Statistics().Generation)
}

func TestEngineIsReproducible(t *testing.T) {
	ctx := context.Background()
	run := func() []int {
		e := newOneMax(t, 11)
		require.NoError(t, e.Setup(ctx))
		var best []int
		for range 15 {
			require.NoError(t, e.Evolve(ctx))
			best = append(best, e.Statistics().BestFitness())
		}
		return best
	}
	assert.Equal(t, run(), run())
}

func TestEngineKillsOldSurvivors(t *testing.T) {
	ctx := context.Background()
	cfg := oneMaxConfig(7)
	cfg.PopulationSize = 10
	cfg.OffspringFraction = 0.01
	cfg.MaximalPhenotypeAge = 1
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.Equal(t, 0, e.OffspringCount())

	require.NoError(t, e.Setup(ctx))
	require.NoError(t, e.Evolve(ctx))
	assert.Zero(t, e.Statistics().Killed)

	require.NoError(t, e.Evolve(ctx))
	assert.Equal(t, 10, e.Statistics().Killed)
	assert.Zero(t, e.Statistics().Invalid)
	assert.Equal(t, 10, e.Killed())
	for _, pt := range e.Population().Phenotypes() {
		assert.LessOrEqual(t, pt.Age(e.Generation()), 1)
	}
}

// invalidating replaces every offspring genotype with an out-of-range one.
type invalidating struct{}

func (invalidating) Alter(_ *rand.Rand, pop *genetic.Population[gene.Int64, int64], generation int) int {
	for i := range pop.Len() {
		gt := pop.Get(i).Genotype()
		ch := gt.Chromosome(0)
		genes := ch.Genes()
		genes[0] = genes[0].WithValue(1000)
		pop.Set(i, pop.Get(i).WithGenotype(gt.WithChromosomes([]genetic.Chromosome[gene.Int64]{ch.WithGenes(genes)}), generation))
	}
	return pop.Len()
}

func TestEngineReplacesInvalidSurvivors(t *testing.T) {
	ctx := context.Background()
	truncation := selection.NewTruncation[gene.Int64, int64]()
	e, err := NewEngine(Config[gene.Int64, int64]{
		Factory: func(rng *rand.Rand) genetic.Genotype[gene.Int64] {
			ch, err := gene.NewInt64Chromosome(rng, 0, 9, 3)
			if err != nil {
				panic(err)
			}
			gt, err := genetic.NewGenotype[gene.Int64](ch)
			if err != nil {
				panic(err)
			}
			return gt
		},
		Fitness: func(gt genetic.Genotype[gene.Int64]) int64 {
			return gt.Gene().Value()
		},
		PopulationSize:    10,
		OffspringFraction: 0.5,
		SurvivorSelector:  truncation,
		OffspringSelector: truncation,
		Alterer:           invalidating{},
		Seed:              13,
	})
	require.NoError(t, err)
	require.NoError(t, e.Setup(ctx))

	require.NoError(t, e.Evolve(ctx))
	assert.Zero(t, e.Statistics().Invalid)

	// The invalid offspring carry fitness 1000 and are the truncation
	// survivors of the next generation.
	require.NoError(t, e.Evolve(ctx))
	stats := e.Statistics()
	assert.Equal(t, 5, stats.Invalid)
	assert.Zero(t, stats.Killed)
	assert.Equal(t, 5, e.Invalid())
	assert.Equal(t, 5, stats.Altered)
}

type failingSelector struct{}

func (failingSelector) Name() string { return "failing" }

func (failingSelector) Select(*rand.Rand, *genetic.Population[gene.Bit, int], int, genetic.Optimize) (*genetic.Population[gene.Bit, int], error) {
	return nil, errors.New("boom")
}

func TestEngineFailedGenerationLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	cfg := oneMaxConfig(17)
	cfg.OffspringSelector = failingSelector{}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Setup(ctx))
	before := e.Statistics()

	err = e.Evolve(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 1, e.Generation())
	assert.Same(t, before, e.Statistics())
	assert.Equal(t, Ready, e.State())
}

func TestEngineHonoursCancelledContext(t *testing.T) {
	e := newOneMax(t, 19)
	require.NoError(t, e.Setup(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Evolve(ctx), context.Canceled)
	assert.Equal(t, 1, e.Generation())
}

func TestEngineSetupGenotypes(t *testing.T) {
	ctx := context.Background()
	e := newOneMax(t, 23)
	rng := rand.New(rand.NewSource(1))
	factory := bitFactory(32)
	seeds := []genetic.Genotype[gene.Bit]{factory(rng), factory(rng)}
	require.NoError(t, e.SetupGenotypes(ctx, seeds))

	pop := e.Population()
	require.Equal(t, 40, pop.Len())
	assert.Equal(t, seeds[0].String(), pop.Get(0).Genotype().String())
	for _, pt := range pop.Phenotypes() {
		assert.Equal(t, 1, pt.Generation())
		assert.True(t, pt.IsEvaluated())
	}
}

func TestEngineEvolveWhile(t *testing.T) {
	ctx := context.Background()
	e := newOneMax(t, 29)
	require.NoError(t, e.Setup(ctx))
	require.NoError(t, e.EvolveWhile(ctx, ByGeneration[gene.Bit, int](5)))
	assert.Equal(t, 5, e.Generation())

	require.NoError(t, e.EvolveWhile(ctx, ByFitnessThreshold[gene.Bit, int](0)))
	assert.Equal(t, 5, e.Generation())
}

func TestEngineViewAndScaler(t *testing.T) {
	ctx := context.Background()
	e := newOneMax(t, 31)
	require.NoError(t, e.Setup(ctx))
	e.SetFitnessScaler(func(c int) int { return -c })
	require.NoError(t, e.Evolve(ctx))

	e.View(func(v View[gene.Bit, int]) {
		assert.Equal(t, 2, v.Generation)
		assert.Equal(t, Evolving, v.State)
		assert.Equal(t, -3, v.Scaler(3))
		assert.Equal(t, v.Statistics.Samples, v.Population.Len())
	})
	assert.Positive(t, e.Durations().Execution)
}

func TestStatisticsCalculate(t *testing.T) {
	pop := genetic.NewPopulation[gene.Bit, int](3)
	factory := bitFactory(4)
	rng := rand.New(rand.NewSource(1))
	for generation := 1; generation <= 3; generation++ {
		pt, err := genetic.NewPhenotype(factory(rng), generation, func(genetic.Genotype[gene.Bit]) int { return generation * 10 }, nil)
		require.NoError(t, err)
		pop.Add(pt)
	}

	s := Calculate(pop, 4, genetic.Minimum)
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 10, s.BestFitness())
	assert.Equal(t, 30, s.WorstFitness())
	assert.InDelta(t, 2.0, s.AgeMean, 1e-12)
	assert.InDelta(t, 1.0, s.AgeVariance, 1e-12)
	assert.InDelta(t, 20.0, s.FitnessMean, 1e-12)
	assert.InDelta(t, 100.0, s.FitnessVariance, 1e-12)

	empty := Calculate(genetic.NewPopulation[gene.Bit, int](0), 1, genetic.Maximum)
	assert.Zero(t, empty.BestFitness())
	assert.Nil(t, empty.Best)
}

func TestLimits(t *testing.T) {
	steady := BySteadyFitness[gene.Bit, int](2)
	stats := func(generation, best int) *Statistics[gene.Bit, int] {
		pt, err := genetic.NewPhenotype(bitFactory(1)(rand.New(rand.NewSource(1))), 1, func(genetic.Genotype[gene.Bit]) int { return best }, nil)
		require.NoError(t, err)
		return &Statistics[gene.Bit, int]{Generation: generation, Best: pt}
	}
	assert.True(t, steady(stats(1, 5)))
	assert.True(t, steady(stats(2, 5)))
	assert.True(t, steady(stats(3, 6)))
	assert.True(t, steady(stats(4, 6)))
	assert.False(t, steady(stats(5, 6)))

	assert.True(t, ByFitnessThreshold[gene.Bit, int](10)(stats(1, 9)))
	assert.False(t, ByFitnessThreshold[gene.Bit, int](10)(stats(1, 10)))

	timed := ByExecutionTime[gene.Bit, int](20 * time.Millisecond)
	assert.True(t, timed(stats(1, 1)))
	time.Sleep(30 * time.Millisecond)
	assert.False(t, timed(stats(1, 1)))

	all := All(ByGeneration[gene.Bit, int](3), ByFitnessThreshold[gene.Bit, int](10))
	assert.True(t, all(stats(2, 1)))
	assert.False(t, all(stats(3, 1)))
	assert.False(t, all(stats(2, 10)))
}

func TestConcurrentlyJoinsOnPanic(t *testing.T) {
	var done atomic.Int32
	func() {
		defer func() {
			assert.NotNil(t, recover())
		}()
		_ = concurrently(context.Background(), 2, func(s *scope) {
			for range 6 {
				s.Go(func(context.Context) error {
					time.Sleep(5 * time.Millisecond)
					done.Add(1)
					return nil
				})
			}
			panic("submit failed")
		})
	}()
	assert.Equal(t, int32(6), done.Load())
}

func TestConcurrentlyReturnsFirstError(t *testing.T) {
	err := concurrently(context.Background(), 0, func(s *scope) {
		s.Go(func(context.Context) error { return errors.New("first") })
		s.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
	})
	require.EqualError(t, err, "first")
}
