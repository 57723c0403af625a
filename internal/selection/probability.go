package selection

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"galapagos/internal/genetic"
)

var ErrProbabilitySum = errors.New("selection probabilities do not sum to one")

// maxULPDistance bounds how far, in units in the last place, the sum of a
// probability vector may drift from 1.
const maxULPDistance = 1e10

// Weigher computes a selection probability per phenotype, always as if
// maximizing. The result is aligned with the population passed in.
type Weigher[G genetic.Gene[G], C genetic.Number] interface {
	Name() string
	Weights(population *genetic.Population[G, C], count int) []float64
}

// ProbabilitySelector samples phenotypes proportionally to the probability
// vector of its weigher. Rank based weighers see a copy of the population
// sorted best first.
type ProbabilitySelector[G genetic.Gene[G], C genetic.Number] struct {
	weigher Weigher[G, C]
	sorted  bool
}

func NewProbabilitySelector[G genetic.Gene[G], C genetic.Number](weigher Weigher[G, C], sorted bool) (*ProbabilitySelector[G, C], error) {
	if weigher == nil {
		return nil, fmt.Errorf("weigher is required")
	}
	return &ProbabilitySelector[G, C]{weigher: weigher, sorted: sorted}, nil
}

func (s *ProbabilitySelector[G, C]) Name() string { return s.weigher.Name() }

func (s *ProbabilitySelector[G, C]) Select(rng *rand.Rand, population *genetic.Population[G, C], count int, opt genetic.Optimize) (*genetic.Population[G, C], error) {
	if err := checkArgs(rng, population, count, false); err != nil {
		return nil, err
	}
	out := genetic.NewPopulation[G, C](count)
	if count == 0 {
		return out, nil
	}

	pop := s.prepare(population)
	p, err := s.probabilities(pop, count, opt)
	if err != nil {
		return nil, err
	}
	cum := cumulative(p)
	for range count {
		out.Add(pop.Get(indexOf(cum, rng.Float64())))
	}
	return out, nil
}

// Probabilities returns the selection probabilities for population under
// opt. For rank based selectors the vector is aligned with the population
// sorted best first for a maximizing problem.
func (s *ProbabilitySelector[G, C]) Probabilities(population *genetic.Population[G, C], count int, opt genetic.Optimize) ([]float64, error) {
	if population == nil || population.Len() == 0 {
		return nil, fmt.Errorf("population must not be empty")
	}
	return s.probabilities(s.prepare(population), count, opt)
}

func (s *ProbabilitySelector[G, C]) prepare(population *genetic.Population[G, C]) *genetic.Population[G, C] {
	if !s.sorted {
		return population
	}
	sorted := population.Copy()
	sorted.SortFor(genetic.Maximum)
	return sorted
}

func (s *ProbabilitySelector[G, C]) probabilities(population *genetic.Population[G, C], count int, opt genetic.Optimize) ([]float64, error) {
	p := s.weigher.Weights(population, count)
	if len(p) != population.Len() {
		return nil, fmt.Errorf("%s: got %d probabilities for %d phenotypes", s.Name(), len(p), population.Len())
	}
	correctNonFinite(p)
	if !sumsToOne(p) {
		return nil, fmt.Errorf("%s: sum=%v: %w", s.Name(), floats.Sum(p), ErrProbabilitySum)
	}
	for i, v := range p {
		if v < 0 {
			return nil, fmt.Errorf("%s: negative probability %v at index %d", s.Name(), v, i)
		}
	}

	if opt == genetic.Minimum {
		if s.sorted {
			slices.Reverse(p)
		} else {
			p = invertRanks(p)
		}
	}
	return p, nil
}

// invertRanks reassigns the probability values so that the i-th smallest
// value goes to the individual holding the i-th largest.
func invertRanks(p []float64) []float64 {
	n := len(p)
	sorted := append([]float64(nil), p...)
	idx := make([]int, n)
	floats.ArgsortStable(sorted, idx)

	out := make([]float64, n)
	for i := range n {
		out[idx[n-1-i]] = sorted[i]
	}
	return out
}

func correctNonFinite(p []float64) {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			uniform(p)
			return
		}
	}
}

func uniform(p []float64) {
	for i := range p {
		p[i] = 1 / float64(len(p))
	}
}

func normalize(p []float64) {
	sum := floats.Sum(p)
	if !(sum > 0) || math.IsInf(sum, 0) {
		uniform(p)
		return
	}
	floats.Scale(1/sum, p)
}

func sumsToOne(p []float64) bool {
	return math.Abs(float64(ulpDistance(floats.Sum(p), 1))) < maxULPDistance
}

func ulpPosition(v float64) int64 {
	t := int64(math.Float64bits(v))
	if t < 0 {
		t = math.MinInt64 - t
	}
	return t
}

func ulpDistance(a, b float64) int64 {
	return ulpPosition(a) - ulpPosition(b)
}

func cumulative(p []float64) []float64 {
	return floats.CumSum(make([]float64, len(p)), p)
}

// indexOf returns the smallest index i with cum[i] >= v. Draws beyond the
// last entry, which rounding can produce, map to the last index.
func indexOf(cum []float64, v float64) int {
	i := sort.SearchFloat64s(cum, v)
	if i >= len(cum) {
		return len(cum) - 1
	}
	return i
}

func fitnessValues[G genetic.Gene[G], C genetic.Number](population *genetic.Population[G, C]) []float64 {
	out := make([]float64, population.Len())
	for i := range out {
		out[i] = float64(population.Get(i).Fitness())
	}
	return out
}
