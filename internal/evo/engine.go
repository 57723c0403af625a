package evo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"galapagos/internal/alter"
	"galapagos/internal/genetic"
	"galapagos/internal/selection"
)

const (
	DefaultPopulationSize      = 50
	DefaultOffspringFraction   = 0.6
	DefaultMaximalPhenotypeAge = 70
	DefaultTournamentSize      = 3
	DefaultCrossoverRate       = 0.1
	DefaultMutationRate        = 0.05
)

var (
	ErrNotInitialized     = errors.New("engine is not set up: call Setup before Evolve")
	ErrAlreadyInitialized = errors.New("engine is already set up: Setup may be called only once")
)

type State int

const (
	Uninitialized State = iota
	Ready
	Evolving
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Evolving:
		return "evolving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config describes an engine. Factory and Fitness are required; zero values
// of the other fields select the defaults.
type Config[G genetic.Gene[G], C cmp.Ordered] struct {
	Factory  func(rng *rand.Rand) genetic.Genotype[G]
	Fitness  genetic.FitnessFunc[G, C]
	Scaler   genetic.Scaler[C]
	Optimize genetic.Optimize

	PopulationSize int
	// OffspringFraction must lie in [0,1]; zero selects
	// DefaultOffspringFraction.
	OffspringFraction   float64
	MaximalPhenotypeAge int

	SurvivorSelector  selection.Selector[G, C]
	OffspringSelector selection.Selector[G, C]
	Alterer           alter.Alterer[G, C]

	Workers int
	Seed    int64
	Logger  *slog.Logger
}

// Engine runs the generational loop. All state is guarded by one mutex
// held for the whole of Setup and of every Evolve call.
type Engine[G genetic.Gene[G], C cmp.Ordered] struct {
	mu sync.Mutex

	cfg    Config[G, C]
	rng    *rand.Rand
	logger *slog.Logger
	scaler genetic.Scaler[C]

	state      State
	generation int
	population *genetic.Population[G, C]
	statistics *Statistics[G, C]
	best       *Statistics[G, C]
	killed     int
	invalid    int
	altered    int
	durations  Durations
}

func NewEngine[G genetic.Gene[G], C cmp.Ordered](cfg Config[G, C]) (*Engine[G, C], error) {
	if cfg.Factory == nil {
		return nil, fmt.Errorf("genotype factory is required")
	}
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	if cfg.Optimize != genetic.Maximum && cfg.Optimize != genetic.Minimum {
		return nil, fmt.Errorf("invalid optimize direction: %v", cfg.Optimize)
	}
	if cfg.PopulationSize < 0 {
		return nil, fmt.Errorf("population size must be > 0: %d", cfg.PopulationSize)
	}
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = DefaultPopulationSize
	}
	if !(cfg.OffspringFraction >= 0 && cfg.OffspringFraction <= 1) {
		return nil, fmt.Errorf("offspring fraction must be in [0,1]: %v", cfg.OffspringFraction)
	}
	if cfg.OffspringFraction == 0 {
		cfg.OffspringFraction = DefaultOffspringFraction
	}
	if cfg.MaximalPhenotypeAge < 0 {
		return nil, fmt.Errorf("maximal phenotype age must be > 0: %d", cfg.MaximalPhenotypeAge)
	}
	if cfg.MaximalPhenotypeAge == 0 {
		cfg.MaximalPhenotypeAge = DefaultMaximalPhenotypeAge
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0: %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.SurvivorSelector == nil || cfg.OffspringSelector == nil {
		tournament, err := selection.NewTournament[G, C](DefaultTournamentSize)
		if err != nil {
			return nil, err
		}
		if cfg.SurvivorSelector == nil {
			cfg.SurvivorSelector = tournament
		}
		if cfg.OffspringSelector == nil {
			cfg.OffspringSelector = tournament
		}
	}
	if cfg.Alterer == nil {
		crossover, err := alter.NewSinglePointCrossover[G, C](DefaultCrossoverRate)
		if err != nil {
			return nil, err
		}
		mutator, err := alter.NewMutator[G, C](DefaultMutationRate)
		if err != nil {
			return nil, err
		}
		cfg.Alterer = alter.NewComposite[G, C](crossover, mutator)
	}
	if cfg.Scaler == nil {
		cfg.Scaler = genetic.Identity[C]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine[G, C]{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logger.With(slog.String("component", "evo.engine")),
		scaler: cfg.Scaler,
	}, nil
}

// OffspringCount is round(OffspringFraction * PopulationSize).
func (e *Engine[G, C]) OffspringCount() int {
	return int(math.Round(e.cfg.OffspringFraction * float64(e.cfg.PopulationSize)))
}

func (e *Engine[G, C]) SurvivorCount() int {
	return e.cfg.PopulationSize - e.OffspringCount()
}

// Setup fills the initial population from the genotype factory.
func (e *Engine[G, C]) Setup(ctx context.Context) error {
	return e.setup(ctx, nil)
}

// SetupGenotypes starts from the given genotypes, topped up from the
// factory if there are fewer than the population size.
func (e *Engine[G, C]) SetupGenotypes(ctx context.Context, genotypes []genetic.Genotype[G]) error {
	if len(genotypes) == 0 {
		return fmt.Errorf("initial genotypes must not be empty")
	}
	return e.setup(ctx, func(generation int) *genetic.Population[G, C] {
		pop := genetic.NewPopulation[G, C](max(len(genotypes), e.cfg.PopulationSize))
		for _, gt := range genotypes {
			pop.Add(e.newPhenotype(gt, generation))
		}
		return pop
	})
}

// SetupPopulation starts from the genotypes of population, rebound to this
// engine's fitness function and scaler.
func (e *Engine[G, C]) SetupPopulation(ctx context.Context, population *genetic.Population[G, C]) error {
	if population == nil || population.Len() == 0 {
		return fmt.Errorf("initial population must not be empty")
	}
	return e.SetupGenotypes(ctx, population.Genotypes())
}

func (e *Engine[G, C]) setup(ctx context.Context, seed func(generation int) *genetic.Population[G, C]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Uninitialized {
		return ErrAlreadyInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	generation := e.generation + 1
	ctx, span := tracer.Start(ctx, "evo.Engine.Setup", trace.WithAttributes(
		attribute.Int("generation", generation),
		attribute.Int("population_size", e.cfg.PopulationSize),
	))
	defer span.End()

	start := time.Now()
	var durations Durations

	pop := genetic.NewPopulation[G, C](e.cfg.PopulationSize)
	if seed != nil {
		pop = seed(generation)
	}
	if missing := e.cfg.PopulationSize - pop.Len(); missing > 0 {
		factory := func(rng *rand.Rand) *genetic.Phenotype[G, C] {
			return e.newPhenotype(e.cfg.Factory(rng), generation)
		}
		if err := pop.FillConcurrent(ctx, e.rng, factory, missing, e.cfg.Workers); err != nil {
			return e.fail(span, fmt.Errorf("fill initial population: %w", err))
		}
	}

	phase := time.Now()
	if err := e.evaluate(ctx, pop); err != nil {
		return e.fail(span, fmt.Errorf("evaluate initial population: %w", err))
	}
	durations.Evaluation = time.Since(phase)

	phase = time.Now()
	stats := Calculate(pop, generation, e.cfg.Optimize)
	durations.Statistics = time.Since(phase)
	durations.Execution = time.Since(start)
	stats.Durations = durations

	e.generation = generation
	e.population = pop
	e.statistics = stats
	e.best = stats
	e.durations = e.durations.Add(durations)
	e.state = Ready

	observe(stats)
	e.logger.Info("engine set up",
		slog.Int("generation", generation),
		slog.Int("population", pop.Len()),
		slog.Any("best", stats.BestFitness()),
		slog.Duration("elapsed", durations.Execution),
	)
	return nil
}

// Evolve computes one generation.
func (e *Engine[G, C]) Evolve(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evolve(ctx)
}

// EvolveN computes generations generations.
func (e *Engine[G, C]) EvolveN(ctx context.Context, generations int) error {
	if generations < 0 {
		return fmt.Errorf("generations must be >= 0: %d", generations)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for range generations {
		if err := e.evolve(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EvolveWhile evolves as long as predicate holds for the latest statistics.
func (e *Engine[G, C]) EvolveWhile(ctx context.Context, predicate Predicate[G, C]) error {
	if predicate == nil {
		return fmt.Errorf("predicate is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	for predicate(e.statistics) {
		if err := e.evolve(ctx); err != nil {
			return err
		}
	}
	return nil
}

// evolve requires e.mu. State is only committed once the whole generation
// succeeded.
func (e *Engine[G, C]) evolve(ctx context.Context) error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	generation := e.generation + 1
	ctx, span := tracer.Start(ctx, "evo.Engine.Evolve", trace.WithAttributes(
		attribute.Int("generation", generation),
	))
	defer span.End()

	start := time.Now()
	var durations Durations

	phase := time.Now()
	survivors, offspring, err := e.selectParents(ctx)
	if err != nil {
		return e.fail(span, fmt.Errorf("select generation %d: %w", generation, err))
	}
	durations.Selection = time.Since(phase)

	phase = time.Now()
	altered := e.cfg.Alterer.Alter(e.rng, offspring, generation)
	durations.Alter = time.Since(phase)

	phase = time.Now()
	killed, invalid, err := e.combine(ctx, survivors, generation)
	if err != nil {
		return e.fail(span, fmt.Errorf("combine generation %d: %w", generation, err))
	}
	next := genetic.NewPopulation[G, C](e.cfg.PopulationSize)
	next.AddAll(offspring)
	next.AddAll(survivors)
	durations.Combine = time.Since(phase)

	phase = time.Now()
	if err := e.evaluate(ctx, next); err != nil {
		return e.fail(span, fmt.Errorf("evaluate generation %d: %w", generation, err))
	}
	durations.Evaluation = time.Since(phase)

	phase = time.Now()
	stats := Calculate(next, generation, e.cfg.Optimize)
	stats.Killed = killed
	stats.Invalid = invalid
	stats.Altered = altered
	durations.Statistics = time.Since(phase)
	durations.Execution = time.Since(start)
	stats.Durations = durations

	e.generation = generation
	e.population = next
	e.statistics = stats
	e.killed += killed
	e.invalid += invalid
	e.altered += altered
	e.durations = e.durations.Add(durations)
	if genetic.Compare(e.cfg.Optimize, stats.BestFitness(), e.best.BestFitness()) > 0 {
		e.best = stats
	}
	e.state = Evolving

	span.SetAttributes(
		attribute.Int("killed", killed),
		attribute.Int("invalid", invalid),
		attribute.Int("altered", altered),
	)
	observe(stats)
	e.logger.Debug("generation evolved",
		slog.Int("generation", generation),
		slog.Any("best", stats.BestFitness()),
		slog.Int("killed", killed),
		slog.Int("invalid", invalid),
		slog.Int("altered", altered),
		slog.Duration("elapsed", durations.Execution),
	)
	return nil
}

// selectParents draws survivors and offspring concurrently, each with its
// own generator.
func (e *Engine[G, C]) selectParents(ctx context.Context) (survivors, offspring *genetic.Population[G, C], err error) {
	rngs := substreams(e.rng, 2)
	err = concurrently(ctx, e.cfg.Workers, func(s *scope) {
		s.Go(func(context.Context) error {
			var err error
			survivors, err = e.cfg.SurvivorSelector.Select(rngs[0], e.population, e.SurvivorCount(), e.cfg.Optimize)
			if err != nil {
				return fmt.Errorf("survivors (%s): %w", e.cfg.SurvivorSelector.Name(), err)
			}
			return nil
		})
		s.Go(func(context.Context) error {
			var err error
			offspring, err = e.cfg.OffspringSelector.Select(rngs[1], e.population, e.OffspringCount(), e.cfg.Optimize)
			if err != nil {
				return fmt.Errorf("offspring (%s): %w", e.cfg.OffspringSelector.Name(), err)
			}
			return nil
		})
	})
	return survivors, offspring, err
}

// combine replaces, in place, survivors older than the maximal phenotype
// age (killed) or with an invalid genotype (invalid) by fresh evaluated
// phenotypes.
func (e *Engine[G, C]) combine(ctx context.Context, survivors *genetic.Population[G, C], generation int) (killed, invalid int, err error) {
	var replace []int
	for i := range survivors.Len() {
		pt := survivors.Get(i)
		switch {
		case pt.Age(generation) > e.cfg.MaximalPhenotypeAge:
			killed++
		case !pt.IsValid():
			invalid++
		default:
			continue
		}
		replace = append(replace, i)
	}
	if len(replace) == 0 {
		return 0, 0, nil
	}

	rngs := substreams(e.rng, len(replace))
	fresh := make([]*genetic.Phenotype[G, C], len(replace))
	err = concurrently(ctx, e.cfg.Workers, func(s *scope) {
		for k := range replace {
			s.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				fresh[k] = e.newPhenotype(e.cfg.Factory(rngs[k]), generation).Evaluate()
				return nil
			})
		}
	})
	if err != nil {
		return 0, 0, err
	}
	for k, i := range replace {
		survivors.Set(i, fresh[k])
	}
	return killed, invalid, nil
}

// evaluate computes the fitness of every unevaluated phenotype.
func (e *Engine[G, C]) evaluate(ctx context.Context, population *genetic.Population[G, C]) error {
	return concurrently(ctx, e.cfg.Workers, func(s *scope) {
		for i := range population.Len() {
			pt := population.Get(i)
			if pt.IsEvaluated() {
				continue
			}
			s.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				pt.Evaluate()
				return nil
			})
		}
	})
}

func (e *Engine[G, C]) newPhenotype(gt genetic.Genotype[G], generation int) *genetic.Phenotype[G, C] {
	pt, err := genetic.NewPhenotype(gt, generation, e.cfg.Fitness, e.scaler)
	if err != nil {
		// Fitness is checked in NewEngine and generation is never negative.
		panic(err)
	}
	return pt
}

func (e *Engine[G, C]) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// SetFitnessScaler changes the scaler used for phenotypes created from now
// on.
func (e *Engine[G, C]) SetFitnessScaler(scaler genetic.Scaler[C]) {
	if scaler == nil {
		scaler = genetic.Identity[C]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scaler = scaler
}

func (e *Engine[G, C]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine[G, C]) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Population returns a copy of the current population.
func (e *Engine[G, C]) Population() *genetic.Population[G, C] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return genetic.NewPopulation[G, C](0)
	}
	return e.population.Copy()
}

func (e *Engine[G, C]) Statistics() *Statistics[G, C] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statistics
}

func (e *Engine[G, C]) BestStatistics() *Statistics[G, C] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.best
}

func (e *Engine[G, C]) BestPhenotype() *genetic.Phenotype[G, C] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil {
		return nil
	}
	return e.best.Best
}

func (e *Engine[G, C]) Killed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.killed
}

func (e *Engine[G, C]) Invalid() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.invalid
}

// Durations sums the phase durations of setup and all generations.
func (e *Engine[G, C]) Durations() Durations {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durations
}

// View is a consistent snapshot of the engine state.
type View[G genetic.Gene[G], C cmp.Ordered] struct {
	State          State
	Generation     int
	Population     *genetic.Population[G, C]
	Scaler         genetic.Scaler[C]
	Statistics     *Statistics[G, C]
	BestStatistics *Statistics[G, C]
	Killed         int
	Invalid        int
	Altered        int
}

// View calls fn with a snapshot taken under the engine lock. fn runs with
// the lock held and must not call back into the engine.
func (e *Engine[G, C]) View(fn func(View[G, C])) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View[G, C]{
		State:          e.state,
		Generation:     e.generation,
		Population:     genetic.NewPopulation[G, C](0),
		Scaler:         e.scaler,
		Statistics:     e.statistics,
		BestStatistics: e.best,
		Killed:         e.killed,
		Invalid:        e.invalid,
		Altered:        e.altered,
	}
	if e.population != nil {
		v.Population = e.population.Copy()
	}
	fn(v)
}
