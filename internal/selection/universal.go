package selection

import (
	"math/rand"

	"galapagos/internal/genetic"
)

// StochasticUniversal samples with count equally spaced pointers over the
// roulette wheel distribution, offset by a single random draw.
type StochasticUniversal[G genetic.Gene[G], C genetic.Number] struct {
	wheel *ProbabilitySelector[G, C]
}

func NewStochasticUniversal[G genetic.Gene[G], C genetic.Number]() StochasticUniversal[G, C] {
	return StochasticUniversal[G, C]{wheel: NewRouletteWheel[G, C]()}
}

func (StochasticUniversal[G, C]) Name() string { return "stochastic_universal" }

func (s StochasticUniversal[G, C]) Probabilities(population *genetic.Population[G, C], count int, opt genetic.Optimize) ([]float64, error) {
	return s.wheel.Probabilities(population, count, opt)
}

func (s StochasticUniversal[G, C]) Select(rng *rand.Rand, population *genetic.Population[G, C], count int, opt genetic.Optimize) (*genetic.Population[G, C], error) {
	if err := checkArgs(rng, population, count, false); err != nil {
		return nil, err
	}
	out := genetic.NewPopulation[G, C](count)
	if count == 0 {
		return out, nil
	}

	p, err := s.wheel.probabilities(population, count, opt)
	if err != nil {
		return nil, err
	}
	cum := cumulative(p)
	delta := 1 / float64(count)
	pointer := rng.Float64() * delta
	j := 0
	for range count {
		for j < len(cum)-1 && cum[j] < pointer {
			j++
		}
		out.Add(population.Get(j))
		pointer += delta
	}
	return out, nil
}
