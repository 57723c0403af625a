package selection

import (
	"cmp"
	"fmt"
	"math/rand"

	"galapagos/internal/genetic"
)

// Selector samples count phenotypes from a population without modifying it.
type Selector[G genetic.Gene[G], C cmp.Ordered] interface {
	Name() string
	Select(rng *rand.Rand, population *genetic.Population[G, C], count int, opt genetic.Optimize) (*genetic.Population[G, C], error)
}

func checkArgs[G genetic.Gene[G], C cmp.Ordered](rng *rand.Rand, population *genetic.Population[G, C], count int, bounded bool) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if population == nil {
		return fmt.Errorf("population is required")
	}
	if count < 0 {
		return fmt.Errorf("selection count must be >= 0: %d", count)
	}
	if bounded && count > population.Len() {
		return fmt.Errorf("selection count %d exceeds population size %d", count, population.Len())
	}
	if count > 0 && population.Len() == 0 {
		return fmt.Errorf("cannot select %d phenotypes from an empty population", count)
	}
	return nil
}

// Truncation keeps the count best phenotypes, best first.
type Truncation[G genetic.Gene[G], C cmp.Ordered] struct{}

func NewTruncation[G genetic.Gene[G], C cmp.Ordered]() Truncation[G, C] {
	return Truncation[G, C]{}
}

func (Truncation[G, C]) Name() string { return "truncation" }

func (Truncation[G, C]) Select(rng *rand.Rand, population *genetic.Population[G, C], count int, opt genetic.Optimize) (*genetic.Population[G, C], error) {
	if err := checkArgs(rng, population, count, true); err != nil {
		return nil, err
	}
	sorted := population.Copy()
	sorted.SortFor(opt)
	return genetic.PopulationOf(sorted.Phenotypes()[:count]...), nil
}

// Tournament keeps the best of sampleSize uniform draws, per slot.
type Tournament[G genetic.Gene[G], C cmp.Ordered] struct {
	sampleSize int
}

func NewTournament[G genetic.Gene[G], C cmp.Ordered](sampleSize int) (Tournament[G, C], error) {
	if sampleSize < 2 {
		return Tournament[G, C]{}, fmt.Errorf("tournament sample size must be >= 2: %d", sampleSize)
	}
	return Tournament[G, C]{sampleSize: sampleSize}, nil
}

func (s Tournament[G, C]) Name() string { return "tournament" }

func (s Tournament[G, C]) SampleSize() int { return s.sampleSize }

func (s Tournament[G, C]) Select(rng *rand.Rand, population *genetic.Population[G, C], count int, opt genetic.Optimize) (*genetic.Population[G, C], error) {
	if err := checkArgs(rng, population, count, true); err != nil {
		return nil, err
	}
	if s.sampleSize < 2 {
		return nil, fmt.Errorf("tournament sample size must be >= 2: %d", s.sampleSize)
	}
	out := genetic.NewPopulation[G, C](count)
	if count == 0 {
		return out, nil
	}
	n := population.Len()
	if s.sampleSize > n {
		return nil, fmt.Errorf("tournament sample size %d exceeds population size %d", s.sampleSize, n)
	}
	for range count {
		winner := population.Get(rng.Intn(n))
		for j := 1; j < s.sampleSize; j++ {
			challenger := population.Get(rng.Intn(n))
			if genetic.Compare(opt, challenger.Fitness(), winner.Fitness()) > 0 {
				winner = challenger
			}
		}
		out.Add(winner)
	}
	return out, nil
}

// MonteCarlo draws count phenotypes uniformly with replacement.
type MonteCarlo[G genetic.Gene[G], C cmp.Ordered] struct{}

func NewMonteCarlo[G genetic.Gene[G], C cmp.Ordered]() MonteCarlo[G, C] {
	return MonteCarlo[G, C]{}
}

func (MonteCarlo[G, C]) Name() string { return "monte_carlo" }

func (MonteCarlo[G, C]) Select(rng *rand.Rand, population *genetic.Population[G, C], count int, _ genetic.Optimize) (*genetic.Population[G, C], error) {
	if err := checkArgs(rng, population, count, false); err != nil {
		return nil, err
	}
	out := genetic.NewPopulation[G, C](count)
	for range count {
		out.Add(population.Get(rng.Intn(population.Len())))
	}
	return out, nil
}
