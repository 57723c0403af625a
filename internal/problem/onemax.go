package problem

import (
	"math/rand"

	"galapagos/internal/config"
	"galapagos/internal/gene"
	"galapagos/internal/genetic"
)

const defaultOneMaxSize = 64

// OneMax maximises the number of set bits in a bit chromosome.
func OneMax() Problem {
	return &definition[gene.Bit, int]{
		name:        "onemax",
		description: "maximise the number of ones in a bit string",
		optimize:    genetic.Maximum,
		alterers:    genericAlterers[gene.Bit, int](),
		build: func(rng *rand.Rand, p config.ProblemConfig) (landscape[gene.Bit, int], error) {
			size := sizeOr(p, defaultOneMaxSize)
			ch, err := gene.NewBitChromosome(rng, size, 0.5)
			if err != nil {
				return landscape[gene.Bit, int]{}, err
			}
			gt, err := genetic.NewGenotype[gene.Bit](ch)
			if err != nil {
				return landscape[gene.Bit, int]{}, err
			}
			return landscape[gene.Bit, int]{
				template: gt,
				fitness:  gene.CountOnes,
				optimum:  &size,
			}, nil
		},
	}
}
