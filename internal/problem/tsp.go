package problem

import (
	"fmt"
	"math"
	"math/rand"

	"galapagos/internal/alter"
	"galapagos/internal/config"
	"galapagos/internal/gene"
	"galapagos/internal/genetic"
)

const (
	defaultCities = 20
	circleRadius  = 10.0
)

type city struct{ x, y float64 }

// TSP finds the shortest round trip through cities placed evenly on a
// circle, in shuffled order. The optimal tour walks the circle.
func TSP() Problem {
	type G = gene.Enum[int]
	return &definition[G, float64]{
		name:        "tsp",
		description: "shortest round trip through cities on a circle",
		optimize:    genetic.Minimum,
		alterers: map[string]altererBuilder[G, float64]{
			config.AltererSwapMutator:  swapMutator[G, float64](),
			config.AltererShiftMutator: shiftMutator[G, float64](),
			config.AltererPMXCrossover: wrap[G, float64](func(a config.AltererConfig) (*alter.Recombinator[G, float64], error) {
				return alter.NewPartiallyMatchedCrossover[G, float64](a.Probability)
			}),
		},
		defaults: []config.AltererConfig{
			{Kind: config.AltererPMXCrossover, Probability: 0.3},
			{Kind: config.AltererSwapMutator, Probability: 0.1},
		},
		build: func(rng *rand.Rand, p config.ProblemConfig) (landscape[G, float64], error) {
			n := sizeOr(p, defaultCities)
			if n < 3 {
				return landscape[G, float64]{}, fmt.Errorf("tsp needs at least 3 cities: %d", n)
			}
			cities := circle(rng, n)
			order := make([]int, n)
			for i := range order {
				order[i] = i
			}
			ch, err := gene.NewPermutationChromosome(rng, order)
			if err != nil {
				return landscape[G, float64]{}, err
			}
			gt, err := genetic.NewGenotype[G](ch)
			if err != nil {
				return landscape[G, float64]{}, err
			}
			// Chord length between neighbours times n, with slack for
			// rounding in the tour sum.
			optimum := float64(n) * 2 * circleRadius * math.Sin(math.Pi/float64(n)) * (1 + 1e-9)
			return landscape[G, float64]{
				template: gt,
				fitness:  tourLength(cities),
				optimum:  &optimum,
			}, nil
		},
	}
}

// circle places n cities on the circle and shuffles their indices.
func circle(rng *rand.Rand, n int) []city {
	cities := make([]city, n)
	for i, j := range rng.Perm(n) {
		angle := 2 * math.Pi * float64(i) / float64(n)
		cities[j] = city{x: circleRadius * math.Cos(angle), y: circleRadius * math.Sin(angle)}
	}
	return cities
}

func tourLength(cities []city) genetic.FitnessFunc[gene.Enum[int], float64] {
	return func(gt genetic.Genotype[gene.Enum[int]]) float64 {
		path := gene.AllelesOf(gt.Chromosome(0))
		length := 0.0
		for i, from := range path {
			to := path[(i+1)%len(path)]
			length += math.Hypot(cities[from].x-cities[to].x, cities[from].y-cities[to].y)
		}
		return length
	}
}
