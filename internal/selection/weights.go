package selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"galapagos/internal/genetic"
	"galapagos/internal/stat"
)

type rouletteWeights[G genetic.Gene[G], C genetic.Number] struct{}

func (rouletteWeights[G, C]) Name() string { return "roulette_wheel" }

// Weights shifts fitness by min(0, worst) and normalizes. A zero sum yields
// the uniform distribution.
func (rouletteWeights[G, C]) Weights(population *genetic.Population[G, C], _ int) []float64 {
	p := fitnessValues(population)
	worst := math.Min(0, floats.Min(p))
	floats.AddConst(-worst, p)
	normalize(p)
	return p
}

func NewRouletteWheel[G genetic.Gene[G], C genetic.Number]() *ProbabilitySelector[G, C] {
	return &ProbabilitySelector[G, C]{weigher: rouletteWeights[G, C]{}}
}

type boltzmannWeights[G genetic.Gene[G], C genetic.Number] struct {
	beta float64
}

func (boltzmannWeights[G, C]) Name() string { return "boltzmann" }

func (w boltzmannWeights[G, C]) Weights(population *genetic.Population[G, C], _ int) []float64 {
	p := fitnessValues(population)
	scale := 0.0
	for _, v := range p {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale > 0 {
		floats.Scale(1/scale, p)
	}
	for i, v := range p {
		p[i] = math.Exp(w.beta * v)
	}
	normalize(p)
	return p
}

// NewBoltzmann weights fitness f by exp(beta*f/max|f|).
func NewBoltzmann[G genetic.Gene[G], C genetic.Number](beta float64) (*ProbabilitySelector[G, C], error) {
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return nil, fmt.Errorf("boltzmann beta must be finite: %v", beta)
	}
	return &ProbabilitySelector[G, C]{weigher: boltzmannWeights[G, C]{beta: beta}}, nil
}

type linearRankWeights[G genetic.Gene[G], C genetic.Number] struct {
	nminus, nplus float64
}

func (linearRankWeights[G, C]) Name() string { return "linear_rank" }

// Weights expects the population sorted best first: position j has rank
// N-1-j counted from the worst.
func (w linearRankWeights[G, C]) Weights(population *genetic.Population[G, C], _ int) []float64 {
	n := population.Len()
	p := make([]float64, n)
	if n == 1 {
		p[0] = 1
		return p
	}
	N := float64(n)
	for j := range p {
		rank := float64(n - 1 - j)
		p[j] = (w.nminus + (w.nplus-w.nminus)*rank/(N-1)) / N
	}
	return p
}

// NewLinearRank gives the worst phenotype the expected count nminus and the
// best 2-nminus.
func NewLinearRank[G genetic.Gene[G], C genetic.Number](nminus float64) (*ProbabilitySelector[G, C], error) {
	if !(nminus >= 0 && nminus <= 2) {
		return nil, fmt.Errorf("linear rank nminus must be in [0,2]: %v", nminus)
	}
	return &ProbabilitySelector[G, C]{
		weigher: linearRankWeights[G, C]{nminus: nminus, nplus: 2 - nminus},
		sorted:  true,
	}, nil
}

type exponentialRankWeights[G genetic.Gene[G], C genetic.Number] struct {
	c float64
}

func (exponentialRankWeights[G, C]) Name() string { return "exponential_rank" }

// Weights expects the population sorted best first.
func (w exponentialRankWeights[G, C]) Weights(population *genetic.Population[G, C], _ int) []float64 {
	n := population.Len()
	p := make([]float64, n)
	b := (w.c - 1) / (math.Pow(w.c, float64(n)) - 1)
	for i := range p {
		p[i] = math.Pow(w.c, float64(i)) * b
	}
	return p
}

func NewExponentialRank[G genetic.Gene[G], C genetic.Number](c float64) (*ProbabilitySelector[G, C], error) {
	if !(c >= 0 && c < 1) {
		return nil, fmt.Errorf("exponential rank c must be in [0,1): %v", c)
	}
	return &ProbabilitySelector[G, C]{weigher: exponentialRankWeights[G, C]{c: c}, sorted: true}, nil
}

// ExponentialRankForBestShare returns the exponential rank base c under which
// the best of n phenotypes is selected with probability share.
func ExponentialRankForBestShare(share float64, n int) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("population size must be > 0: %d", n)
	}
	if !(share > 0 && share <= 1) {
		return 0, fmt.Errorf("best share must be in (0,1]: %v", share)
	}
	if share == 1 {
		return 0, nil
	}
	N := float64(n)
	f := func(c float64) float64 {
		return (1-c)/(1-math.Pow(c, N)) - share
	}
	c, err := stat.FindRoot(f, 1e-12, 1-1e-9, 1e-12)
	if err != nil {
		return 0, fmt.Errorf("best share %v unreachable for %d phenotypes: %w", share, n, err)
	}
	return c, nil
}
