package problem

import (
	"math"
	"math/rand"

	"galapagos/internal/config"
	"galapagos/internal/gene"
	"galapagos/internal/genetic"
)

const (
	defaultRastriginDims = 2
	rastriginA           = 10.0
	rastriginBound       = 5.12
)

// Rastrigin minimises the Rastrigin function over [-5.12, 5.12)^n. The
// global minimum 0 lies at the origin.
func Rastrigin() Problem {
	return &definition[gene.Float64, float64]{
		name:        "rastrigin",
		description: "minimise the Rastrigin function",
		optimize:    genetic.Minimum,
		alterers:    numericAlterers[gene.Float64, float64](),
		build: func(rng *rand.Rand, p config.ProblemConfig) (landscape[gene.Float64, float64], error) {
			ch, err := gene.NewFloat64Chromosome(rng, -rastriginBound, rastriginBound, sizeOr(p, defaultRastriginDims))
			if err != nil {
				return landscape[gene.Float64, float64]{}, err
			}
			gt, err := genetic.NewGenotype[gene.Float64](ch)
			if err != nil {
				return landscape[gene.Float64, float64]{}, err
			}
			return landscape[gene.Float64, float64]{template: gt, fitness: rastrigin}, nil
		},
	}
}

func rastrigin(gt genetic.Genotype[gene.Float64]) float64 {
	ch := gt.Chromosome(0)
	sum := rastriginA * float64(ch.Len())
	for i := range ch.Len() {
		x := ch.Gene(i).Value()
		sum += x*x - rastriginA*math.Cos(2*math.Pi*x)
	}
	return sum
}
